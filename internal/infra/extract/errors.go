package extract

import "errors"

var (
	// ErrExtractionUnavailable は抽出に必要な外部ツールが見つからない場合に返されます
	ErrExtractionUnavailable = errors.New("extraction backend unavailable")

	// ErrExtraction はファイルの読み込みや解析に失敗した場合に返されます
	ErrExtraction = errors.New("extraction failed")
)
