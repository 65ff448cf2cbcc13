package host

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/internal/storage"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/google/uuid"
)

// analysisStore is the part of Store used by TaskSubmitter.
type analysisStore interface {
	AddAnalysis(ctx context.Context, na NewAnalysis) (*core.Analysis, error)
}

// TaskSubmitter implements core.Submitter: the file is stored through a storage backend
// and an analysis task in waiting state is created for the case.
type TaskSubmitter struct {
	store   analysisStore
	storage storage.Storage
}

// NewTaskSubmitter returns a submitter storing images in st and tasks in store.
func NewTaskSubmitter(store analysisStore, st storage.Storage) *TaskSubmitter {
	return &TaskSubmitter{store: store, storage: st}
}

// Submit stores the file under Case_id_<id>/<trace id>/<file name> and records the analysis
// task acting as user. The source file is left in place.
func (t *TaskSubmitter) Submit(ctx context.Context, src string, c *core.Case, user *core.User) (*core.Analysis, error) {
	if c == nil || user == nil {
		return nil, fmt.Errorf("case and user are required to submit %s", src)
	}

	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	traceId := core.TraceId(ctx)
	if traceId == "" {
		traceId = uuid.NewString()
	}
	fileName := filepath.Base(src)
	dest := path.Join(c.DirectoryName(), traceId, fileName)

	info, err := t.storage.Put(ctx, src, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", src, err)
	}

	analysis, err := t.store.AddAnalysis(ctx, NewAnalysis{
		CaseID:     c.ID,
		OwnerID:    user.ID,
		FileName:   fileName,
		StorageRef: info.Dest,
		Checksum:   info.Checksum,
		Size:       info.Size,
		TraceId:    traceId,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis for %s: %w", src, err)
	}

	logx.As().Info().
		Str("path", src).
		Int64("case_id", c.ID).
		Str("user", user.Username).
		Int64("analysis_id", analysis.ID).
		Str("storage_type", t.storage.Type()).
		Str("storage_ref", info.Dest).
		Str("trace_id", traceId).
		Msg("Analysis task created")

	return analysis, nil
}
