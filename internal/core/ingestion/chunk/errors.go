package chunk

import "errors"

// ErrInvalidConfig はチャンクサイズ・オーバーラップの設定が不正な場合に返されます
var ErrInvalidConfig = errors.New("invalid chunker config")
