package scanning

import "fmt"

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeNotFound         NoticeKind = "not_found"
	NoticeNoResults        NoticeKind = "no_results"
	NoticeCameraPermission NoticeKind = "camera_permission"
	NoticeFailure          NoticeKind = "failure"
)

// Notice is a message the presentation layer shows to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// NotFoundNotice reports a scan that matched nothing, carrying the scanned value.
func NotFoundNotice(value string) Notice {
	return Notice{
		Kind:    NoticeNotFound,
		Title:   "Book Not Found",
		Message: fmt.Sprintf("Could not find book information for: %s", value),
	}
}

// NoResultsNotice reports a search that matched nothing.
func NoResultsNotice(query string) Notice {
	return Notice{
		Kind:    NoticeNoResults,
		Title:   "No Results",
		Message: fmt.Sprintf("No books found for: %s", query),
	}
}

// CameraPermissionNotice reports a denied camera permission.
func CameraPermissionNotice() Notice {
	return Notice{
		Kind:    NoticeCameraPermission,
		Title:   "Camera Permission Required",
		Message: "This app needs camera access to scan books.",
	}
}

// FailureNotice reports a scan that could not be processed.
func FailureNotice() Notice {
	return Notice{
		Kind:    NoticeFailure,
		Title:   "Error",
		Message: "Failed to process scan result",
	}
}
