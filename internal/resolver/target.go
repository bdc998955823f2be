package resolver

// Target is the validated outcome of resolving a request path.
// The set of implementations is closed: APITarget, FileTarget and DirectoryTarget.
type Target interface {
	// RequestPath is the inbound request path, unchanged.
	RequestPath() string
	// FilesystemPath is the validated absolute path on disk.
	FilesystemPath() string
	isTarget()
}

// APITarget is an existing directory matched by an api route.
type APITarget struct {
	DirectoryPath string
	Request       string
	// ListingPath is echoed into every listing entry. For routes with a path group it is the
	// captured subpath, which is the directory's address under the filesystem routes.
	ListingPath string
}

// FileTarget is an existing non-directory entry matched by an fs route.
type FileTarget struct {
	FilePath string
	Request  string
}

// DirectoryTarget is an existing directory matched by an fs route.
type DirectoryTarget struct {
	DirectoryPath string
	Request       string
}

func (target APITarget) RequestPath() string    { return target.Request }
func (target APITarget) FilesystemPath() string { return target.DirectoryPath }
func (APITarget) isTarget()                     {}

func (target FileTarget) RequestPath() string    { return target.Request }
func (target FileTarget) FilesystemPath() string { return target.FilePath }
func (FileTarget) isTarget()                     {}

func (target DirectoryTarget) RequestPath() string    { return target.Request }
func (target DirectoryTarget) FilesystemPath() string { return target.DirectoryPath }
func (DirectoryTarget) isTarget()                     {}
