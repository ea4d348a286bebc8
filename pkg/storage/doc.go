// Package storage is the root of heapstore's disk storage.
//
// Data is organised into fixed-size pages that are read and written as
// whole units. The size is chosen per database instance.
//
//   - [heapstore/pkg/storage/page] is the file abstraction shared by all
//     table files: page-aligned reads, writes and appends over one OS file.
//   - [heapstore/pkg/storage/heap] stores unordered fixed-width tuples in
//     bitmap-addressed slots and scans them in page and slot order.
package storage
