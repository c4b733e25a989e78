package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate 緯度経度が範囲外または非有限
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidResolution H3解像度が 0〜15 の範囲外
	ErrInvalidResolution = errors.New("invalid resolution")
	// ErrInvalidCell セル識別子がH3として不正
	ErrInvalidCell = errors.New("invalid cell")
	// ErrTreeNotFound 対象の樹木がリモート・ローカルのいずれにも存在しない
	ErrTreeNotFound = errors.New("tree not found")
	// ErrGeolocationUnavailable 端末の位置情報が利用できない
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
)

// RemoteUnavailableError リモートサービスへの到達失敗
// （ネットワークエラー・非2xx・不正なペイロードをすべて含む）
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable (%s): %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// IsRemoteUnavailable エラーがリモート到達失敗かどうかを判定
func IsRemoteUnavailable(err error) bool {
	var remoteErr *RemoteUnavailableError
	return errors.As(err, &remoteErr)
}
