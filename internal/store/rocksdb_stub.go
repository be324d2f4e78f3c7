// +build !rocksdb

package store

import "errors"

// NewRocksDBStore is the non-rocksdb build's stub, mirroring the teacher's
// rocksdb_stub.go message: rebuild with "-tags rocksdb" to get the real
// backend linked in.
func NewRocksDBStore(cfg *Config) (Store, error) {
	return nil, errors.New("rocksdb support not compiled in - rebuild with -tags rocksdb to enable")
}
