package menucache

import "errors"

var ErrNotCached = errors.New("menus not cached")
