package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

func TestBatchRow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		row     model.BatchRow
		wantErr string
	}{
		{name: "valid", row: model.BatchRow{Line: 1, Keyword: "fox", Count: 5, Category: "Animals"}},
		{name: "empty keyword", row: model.BatchRow{Line: 2, Keyword: "", Count: 5, Category: "Cats"}, wantErr: "keyword is empty"},
		{name: "blank keyword", row: model.BatchRow{Line: 3, Keyword: "  ", Count: 5, Category: "Cats"}, wantErr: "keyword is empty"},
		{name: "empty category", row: model.BatchRow{Line: 4, Keyword: "fox", Count: 5}, wantErr: "category is empty"},
		{name: "zero count", row: model.BatchRow{Line: 5, Keyword: "fox", Count: 0, Category: "Animals"}, wantErr: "count must be a positive number"},
		{name: "non numeric count", row: model.BatchRow{Line: 6, Keyword: "fox", RawCount: "many", Category: "Animals"}, wantErr: `got "many"`},
		{name: "malformed", row: model.BatchRow{Line: 7, Malformed: `extraneous " in field`}, wantErr: `malformed row: extraneous " in field`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if tt.wantErr == "" {
				gt.NoError(t, err)
				return
			}
			gt.Error(t, err)
			gt.String(t, err.Error()).Contains(tt.wantErr)
			gt.True(t, goerr.HasTag(err, model.ErrTagValidation))
		})
	}
}

func TestParseCount(t *testing.T) {
	gt.Equal(t, model.ParseCount("5"), 5)
	gt.Equal(t, model.ParseCount(" 7 "), 7)
	gt.Equal(t, model.ParseCount("5.0"), 5)
	gt.Equal(t, model.ParseCount("5.5"), 0)
	gt.Equal(t, model.ParseCount("abc"), 0)
	gt.Equal(t, model.ParseCount(""), 0)
	gt.Equal(t, model.ParseCount("-3"), -3)
}

func TestBatchRow_Folder(t *testing.T) {
	row := model.BatchRow{Keyword: " C++ / Go? ", Category: "Dev/Langs"}
	gt.Equal(t, row.Folder(), "Dev_Langs/C__ _ Go_")
}

func TestBatchResult_Summary(t *testing.T) {
	row := model.BatchRow{Line: 1, Keyword: "fox", Count: 2, Category: "Animals"}
	report := model.NewReport("fox", 2, row.Folder(), model.DownloadResults{
		{OK: true, LocalPath: "a"},
		{OK: false, Error: "404"},
	})

	result := &model.BatchResult{
		Rows: []model.BatchRowStatus{
			model.NewRowStatus(row, report),
			model.NewSkippedRowStatus(model.BatchRow{Line: 2}, errors.New("keyword is empty")),
		},
	}

	gt.Array(t, result.Statuses()).Length(2)
	gt.Equal(t, result.Statuses()[0], "Row 1 [Animals/fox]: Downloaded 1 of 2 images (1 failed).")
	gt.Equal(t, result.Statuses()[1], "Row 2 skipped: keyword is empty")
	gt.Equal(t, result.Summary(), result.Statuses()[0]+"\n"+result.Statuses()[1])

	processed, skipped, images := result.Counts()
	gt.Equal(t, processed, 1)
	gt.Equal(t, skipped, 1)
	gt.Equal(t, images, 1)
	gt.Equal(t, result.FinalStatus(), "Batch finished: 1 row processed, 1 row skipped, 1 image downloaded.")
}
