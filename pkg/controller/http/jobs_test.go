package http_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/imgharvest/pkg/controller/http"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

func TestJobStore(t *testing.T) {
	store := controller.NewJobStore(2)

	id := store.Create("jobs.csv", 2)
	job, ok := store.Get(id)
	gt.True(t, ok)
	gt.Equal(t, job.State, controller.JobStateRunning)
	gt.Equal(t, job.Total, 2)

	row := model.BatchRow{Line: 1, Keyword: "", Count: 1, Category: "c"}
	status := model.NewSkippedRowStatus(row, row.Validate())
	store.AppendRow(id, status)

	job, _ = store.Get(id)
	gt.Array(t, job.Rows).Length(1)

	// snapshot is detached from the store
	job.Rows[0].Status = "changed"
	again, _ := store.Get(id)
	gt.Equal(t, again.Rows[0].Status, status.Status)

	store.Finish(id, &model.BatchResult{Rows: []model.BatchRowStatus{status}})
	job, _ = store.Get(id)
	gt.True(t, job.Done())
	gt.Equal(t, job.Final, "Batch finished: 0 rows processed, 1 row skipped, 0 images downloaded.")
}

func TestJobStoreEvictsFinished(t *testing.T) {
	store := controller.NewJobStore(2)

	first := store.Create("a", 0)
	store.Finish(first, &model.BatchResult{})
	running := store.Create("b", 1)
	third := store.Create("c", 0)

	_, ok := store.Get(first)
	gt.False(t, ok)
	_, ok = store.Get(running)
	gt.True(t, ok)
	_, ok = store.Get(third)
	gt.True(t, ok)
}

func TestJobStoreFail(t *testing.T) {
	store := controller.NewJobStore(2)
	id := store.Create("jobs.csv", 3)

	row := model.BatchRow{Line: 1, Keyword: "fox", Count: 1, Category: "Animals"}
	store.AppendRow(id, model.NewRowStatus(row, model.NewReport("fox", 1, row.Folder(), nil)))
	store.Fail(id, "An error occurred: batch aborted")

	job, ok := store.Get(id)
	gt.True(t, ok)
	gt.True(t, job.Done())
	gt.Equal(t, job.State, controller.JobStateFailed)
	gt.Equal(t, job.Final, "An error occurred: batch aborted")
	gt.Array(t, job.Rows).Length(1)

	// a finished job is not overwritten
	done := store.Create("other.csv", 0)
	store.Finish(done, &model.BatchResult{})
	store.Fail(done, "late failure")
	job, _ = store.Get(done)
	gt.Equal(t, job.State, controller.JobStateDone)
}
