package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// ErrCaseNotFound is returned by a CaseRegistry when no case has the requested id.
var ErrCaseNotFound = errors.New("case not found")

// User is an account of the host platform.
type User struct {
	ID       int64
	Username string
}

// Case is a forensic case of the host platform. Files are routed to a case by dropping
// them into the case directory named after DirectoryName.
type Case struct {
	ID    int64
	Name  string
	Owner *User
}

// DirectoryName returns the name of the watch-root subdirectory for the case.
func (c *Case) DirectoryName() string {
	return CaseDirName(c.ID)
}

func (c *Case) String() string {
	return fmt.Sprintf("%s (%s)", c.DirectoryName(), c.Name)
}

// AnalysisStateWaiting is the state of an analysis task that has not been picked up yet.
const AnalysisStateWaiting = "W"

// Analysis is a task created by the host platform for a submitted file.
type Analysis struct {
	ID         int64
	CaseID     int64
	OwnerID    int64
	FileName   string
	StorageRef string
	Checksum   string
	Size       int64
	State      string
	TraceId    string
	CreatedAt  time.Time
}

// CaseRegistry provides read access to the cases known by the host platform.
//
// Notes:
//   - GetCase must return an error wrapping ErrCaseNotFound for unknown ids so that callers
//     can tell an unknown case from a failing registry.
type CaseRegistry interface {
	ListCases(ctx context.Context) ([]*Case, error)
	GetCase(ctx context.Context, id int64) (*Case, error)
}

// Submitter hands a file to the host analysis intake on behalf of user.
//
// Notes:
//   - The call is synchronous; the monitor loop is blocked while it runs.
//   - Submit must not remove the source file; deletion is decided by the caller.
type Submitter interface {
	Submit(ctx context.Context, path string, c *Case, user *User) (*Analysis, error)
}

// Scanner defines the interface for a file scanning component.
//
// Methods:
//   - Info: Returns a unique identifier or description of the scanner instance.
//   - Root: Returns the absolute directory the scanner walks.
//   - Scan: Walks the root and streams the regular files found through a channel.
//     Errors encountered during the scanning process are sent to an error channel.
//
// Notes:
//   - The returned channel is closed once the walk completes or the context is cancelled.
type Scanner interface {
	Info() string
	Root() string
	Scan(ctx context.Context, ech chan<- error) <-chan ScannerResult
}

// ScannerResult represents a regular file found by a Scanner.
//
// Fields:
//   - Path: The absolute path of the file.
//   - Info: The file information captured during the walk.
type ScannerResult struct {
	Path string
	Info os.FileInfo
}

// LookupStatus is the outcome of resolving a directory to a case.
type LookupStatus int

const (
	// LookupNoMatch means the directory name does not follow the case directory pattern.
	LookupNoMatch LookupStatus = iota
	// LookupNotFound means the name carries a case id that the registry does not know.
	LookupNotFound
	// LookupFound means the case was resolved.
	LookupFound
)

func (s LookupStatus) String() string {
	switch s {
	case LookupNoMatch:
		return "no_match"
	case LookupNotFound:
		return "not_found"
	case LookupFound:
		return "found"
	default:
		return fmt.Sprintf("LookupStatus(%d)", int(s))
	}
}

// CaseLookup is the result of resolving a directory to a case. CaseID is set for
// LookupNotFound and LookupFound, Case only for LookupFound.
type CaseLookup struct {
	Status LookupStatus
	CaseID int64
	Case   *Case
}

// UploadInfo describes a file persisted by a storage backend.
type UploadInfo struct {
	Src          string
	Dest         string
	ChecksumType string
	Checksum     string
	Size         int64
	LastModified time.Time
}
