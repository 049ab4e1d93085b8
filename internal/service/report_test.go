package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
	repoMocks "snitchvis/internal/repository/mocks"
	"snitchvis/internal/snitchlog"
	"snitchvis/internal/storage"
	storeMocks "snitchvis/internal/storage/mocks"
)

const testLog = `[2024-03-01 20:00:00] [north] alice is at gate (100,64,-200)
[2024-03-01 20:00:30] [north] bob logged out at keep (120,70,-180)
`

// testSnitchDB builds a real sqlite snitch database and returns its
// raw bytes, the way a JukeAlert export would arrive in an upload.
func testSnitchDB(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snitches.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE snitches_v2 (
		world TEXT, x INTEGER, y INTEGER, z INTEGER,
		group_name TEXT, type TEXT, name TEXT,
		dormant_ts INTEGER, cull_ts INTEGER, last_seen_ts INTEGER,
		created_ts INTEGER, created_by_uuid TEXT,
		renamed_ts INTEGER, renamed_by_uuid TEXT,
		lost_jalist_access_ts INTEGER, broken_ts INTEGER, gone_ts INTEGER,
		tags TEXT, notes TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO snitches_v2 (world, x, y, z, group_name, type, name) VALUES ('world', 100, 64, -200, 'north', 'entry', 'gate')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func TestReportService_Ingest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, rep *model.Report)
	}{
		{
			name: "happy path without snitch db",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "reports/") && strings.HasSuffix(key, "/events.log")
				}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(rep *model.Report) bool {
					return rep.EventCount == 2 && rep.UserCount == 2 &&
						rep.SnitchCount == 2 && rep.DurationMS == 30000 &&
						rep.SnitchDBKey == ""
				})).Return(&model.Report{ID: "gen-id"}, nil)
				mRepo.On("InsertEvents", ctx, mock.Anything, mock.MatchedBy(func(events []model.Event) bool {
					return len(events) == 2 && events[0].Username == "alice"
				})).Return(nil)
				mRepo.On("InsertSnitches", ctx, mock.Anything, mock.MatchedBy(func(snitches []model.Snitch) bool {
					return len(snitches) == 2 && snitches[0].Synthetic && snitches[1].Synthetic
				})).Return(nil)

				return IngestInput{Name: "raid", Events: strings.NewReader(testLog)}
			},
			check: func(t *testing.T, rep *model.Report) {
				assert.Equal(t, "gen-id", rep.ID)
			},
		},
		{
			name: "happy path with snitch db",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasSuffix(key, "/events.log")
				}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasSuffix(key, "/snitches.db")
				}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)

				// One snitch comes from the db, the other gets synthesized
				// for the event at a position the db doesn't cover.
				mRepo.On("Create", ctx, mock.MatchedBy(func(rep *model.Report) bool {
					return rep.SnitchCount == 2 && strings.HasSuffix(rep.SnitchDBKey, "/snitches.db")
				})).Return(&model.Report{ID: "gen-id"}, nil)
				mRepo.On("InsertEvents", ctx, mock.Anything, mock.Anything).Return(nil)
				mRepo.On("InsertSnitches", ctx, mock.Anything, mock.MatchedBy(func(snitches []model.Snitch) bool {
					return len(snitches) == 2 && snitches[0].Name == "gate" && !snitches[0].Synthetic && snitches[1].Synthetic
				})).Return(nil)

				return IngestInput{
					Name:     "raid",
					Events:   strings.NewReader(testLog),
					SnitchDB: bytes.NewReader(testSnitchDB(t)),
				}
			},
		},
		{
			name: "validation error - missing events",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				return IngestInput{Name: "raid"}
			},
			wantErr: ErrEventsRequired,
		},
		{
			name: "no parsable events",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				return IngestInput{Events: strings.NewReader("nothing to see here\n")}
			},
			wantErr: snitchlog.ErrNoEvents,
		},
		{
			name: "storage error",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return IngestInput{Events: strings.NewReader(testLog)}
			},
			wantErrMsg: "upload events to storage: storage fail",
		},
		{
			name: "repository error with successful rollback",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return IngestInput{Events: strings.NewReader(testLog)}
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "event insert error drops the report row",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(&model.Report{ID: "gen-id"}, nil)
				mRepo.On("InsertEvents", ctx, mock.Anything, mock.Anything).Return(errors.New("db fail"))
				mRepo.On("Delete", ctx, mock.Anything).Return(nil)
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return IngestInput{Events: strings.NewReader(testLog)}
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			setupMocks: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportRepository) IngestInput {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return IngestInput{Events: strings.NewReader(testLog)}
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockReportRepository)
			mJobs := new(repoMocks.MockRenderJobRepository)
			svc := NewReportService(mStore, mRepo, mJobs)

			in := tt.setupMocks(t, mStore, mRepo)

			rep, err := svc.Ingest(ctx, in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, rep)
			}
			if tt.check != nil && err == nil {
				tt.check(t, rep)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockReportRepository)
		wantErr    bool
		wantTotal  int
	}{
		{
			name:   "success",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Report]{Items: []model.Report{{ID: "a"}}, Total: 1}, nil)
			},
			wantTotal: 1,
		},
		{
			name:   "defaults applied for bad paging values",
			limit:  0,
			offset: -3,
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Report]{Items: nil, Total: 0}, nil)
			},
		},
		{
			name:   "repository error",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockReportRepository)
			svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantTotal, res.Total)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "a").Return(&model.Report{ID: "a"}, nil)

		rep, err := svc.Get(ctx, "a")

		assert.NoError(t, err)
		assert.Equal(t, "a", rep.ID)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewReportService(new(storeMocks.MockStorage), new(repoMocks.MockReportRepository), new(repoMocks.MockRenderJobRepository))

		_, err := svc.Get(ctx, "")

		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, "missing")

		assert.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestReportService_Events(t *testing.T) {
	ctx := context.Background()

	t.Run("success with filter", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		filter := repository.EventFilter{Username: "alice", FromMS: 1000}
		mRepo.On("FindByID", ctx, "a").Return(&model.Report{ID: "a"}, nil)
		mRepo.On("ListEvents", ctx, "a", filter).Return([]model.Event{{Username: "alice"}}, nil)

		events, err := svc.Events(ctx, "a", filter)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		mRepo.AssertExpectations(t)
	})

	t.Run("report not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Events(ctx, "missing", repository.EventFilter{})

		assert.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestReportService_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("derives users from events", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "a").Return(&model.Report{ID: "a"}, nil)
		mRepo.On("ListEvents", ctx, "a", repository.EventFilter{}).Return([]model.Event{
			{Username: "alice"},
			{Username: "bob"},
			{Username: "alice"},
		}, nil)

		users, err := svc.Users(ctx, "a")

		assert.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.True(t, users[0].Enabled)
		assert.NotEqual(t, users[0].Color, users[1].Color)
	})

	t.Run("report not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Users(ctx, "missing")

		assert.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestReportService_Delete(t *testing.T) {
	ctx := context.Background()

	rep := &model.Report{
		ID:          "a",
		EventsKey:   "reports/a/events.log",
		SnitchDBKey: "reports/a/snitches.db",
	}

	t.Run("success with rendered videos", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReportRepository)
		mJobs := new(repoMocks.MockRenderJobRepository)
		svc := NewReportService(mStore, mRepo, mJobs)

		mRepo.On("FindByID", ctx, "a").Return(rep, nil)
		mJobs.On("ListByReport", ctx, "a").Return([]model.RenderJob{
			{ID: "j1", VideoKey: "renders/j1.mp4"},
			{ID: "j2"},
		}, nil)
		mStore.On("Delete", ctx, "renders/j1.mp4").Return(nil)
		mStore.On("Delete", ctx, "reports/a/events.log").Return(nil)
		mStore.On("Delete", ctx, "reports/a/snitches.db").Return(nil)
		mRepo.On("Delete", ctx, "a").Return(nil)

		err := svc.Delete(ctx, "a")

		assert.NoError(t, err)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
		mJobs.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockRenderJobRepository))

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		err := svc.Delete(ctx, "missing")

		assert.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("storage delete error keeps db rows", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockReportRepository)
		mJobs := new(repoMocks.MockRenderJobRepository)
		svc := NewReportService(mStore, mRepo, mJobs)

		mRepo.On("FindByID", ctx, "a").Return(rep, nil)
		mJobs.On("ListByReport", ctx, "a").Return([]model.RenderJob{}, nil)
		mStore.On("Delete", ctx, "reports/a/events.log").Return(errors.New("storage fail"))

		err := svc.Delete(ctx, "a")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "delete storage")
		mRepo.AssertNotCalled(t, "Delete", ctx, "a")
	})
}

func TestReportName(t *testing.T) {
	start := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "raid", reportName("raid", start))
	assert.Equal(t, "Snitch Log 03/01/2024 20:00", reportName("", start))
}
