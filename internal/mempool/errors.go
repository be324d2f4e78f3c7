package mempool

import "errors"

// ErrPoolFull is returned by Submit when the pool is at maxSize.
var ErrPoolFull = errors.New("mempool: pool full")
