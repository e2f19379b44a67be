package comment

import (
	"path/filepath"
	"strings"

	commentmodel "github.com/zhouzirui/tg-gateway/internal/model/comment"
)

var (
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true}
)

// mediaKind decides how a comment is first attempted. Without a file path
// it is always text; otherwise the declared type or the file extension
// selects photo before video.
func mediaKind(messageType commentmodel.MessageType, path string) commentmodel.MessageType {
	if strings.TrimSpace(path) == "" {
		return commentmodel.TypeUnspecified
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case messageType == commentmodel.TypePhoto || imageExtensions[ext]:
		return commentmodel.TypePhoto
	case messageType == commentmodel.TypeVideo || videoExtensions[ext]:
		return commentmodel.TypeVideo
	default:
		return commentmodel.TypeUnspecified
	}
}
