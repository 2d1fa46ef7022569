// Package image loads the binary image that is shipped to the bootloader.
//
// The whole file is read into memory: the transfer core needs the exact
// length up front to build the size header, and images are small enough
// (a few MiB) that streaming from disk buys nothing.
//
// Every loaded image carries a BLAKE2b-256 digest so that status records and
// logs identify exactly which build was sent.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package image
