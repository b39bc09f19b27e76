package intake

import "errors"

var (
	// ErrInvalidFileType は拡張子が許可リストに含まれない場合に返されます
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrInvalidFileName はファイル名が空、またはパス要素を含む場合に返されます
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrFileTooLarge はアップロードが上限サイズを超えた場合に返されます
	ErrFileTooLarge = errors.New("file too large")

	// ErrInternal は書き込み中の予期しないI/Oエラーの場合に返されます
	ErrInternal = errors.New("internal error")
)

// Error はユーザーに返すメッセージと分類用のセンチネルを保持します
type Error struct {
	Kind    error  // ErrInvalidFileType などのセンチネル
	Message string // アップロード元に返すメッセージ
	Err     error  // 原因（任意）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap は分類用のセンチネルと原因の両方を返します
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
