package remote

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"unicode"

	"sftp-gateway/pkg/apierror"
)

// PathValidator maps client paths ("/photos/a.jpg") onto remote paths under
// a fixed root ("/web/photos/a.jpg") and back.
type PathValidator struct {
	root string
}

func NewPathValidator(root string) (*PathValidator, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("remote root cannot be empty")
	}

	if !strings.HasPrefix(trimmed, "/") {
		return nil, fmt.Errorf("remote root %q must be absolute", root)
	}

	return &PathValidator{root: path.Clean(trimmed)}, nil
}

func (v *PathValidator) Root() string {
	return v.root
}

func (v *PathValidator) Resolve(clientPath string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(clientPath), `\`, "/")
	if normalized == "" || normalized == "/" {
		return v.root, nil
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.New("INVALID_PATH", "path contains invalid characters", clientPath, http.StatusBadRequest)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", apierror.New("PATH_TRAVERSAL", "path traversal attempt detected", clientPath, http.StatusForbidden)
		}
	}

	resolved := path.Join(v.root, path.Clean("/"+strings.TrimPrefix(normalized, "/")))
	if !isWithinRoot(v.root, resolved) {
		return "", apierror.New("PATH_TRAVERSAL", "resolved path is outside remote root", clientPath, http.StatusForbidden)
	}

	return resolved, nil
}

// ClientPath is the inverse of Resolve.
func (v *PathValidator) ClientPath(remotePath string) string {
	cleaned := path.Clean(remotePath)
	if cleaned == v.root || !isWithinRoot(v.root, cleaned) {
		return "/"
	}

	return "/" + strings.TrimPrefix(cleaned, v.root+"/")
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(root string, candidate string) bool {
	if candidate == root || root == "/" {
		return true
	}

	return strings.HasPrefix(candidate, root+"/")
}
