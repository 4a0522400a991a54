// Package serialization reads and writes blobs as SafeTensors files.
//
// Layout:
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON, tensor name -> {dtype, shape, data_offsets}, optional "__metadata__"]
//	[tensor data: raw little-endian bytes, tensors in name order]
//
// Files written here carry a "sha256" metadata entry over the data section;
// the reader verifies it when present. F16 and BF16 tensors are decoded to
// float32 on load, since every layer computes in float32.
package serialization
