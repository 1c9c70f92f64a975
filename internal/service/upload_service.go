package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/model"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/logger"
	"habit_tracker_backend/pkg/monitoring"
	"habit_tracker_backend/pkg/tracing"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const archiveListLimit = 50

var archiveContentTypes = map[string]string{
	util.ExtCSV:  "text/csv",
	util.ExtXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ImportResult 一次文件导入的结果
type ImportResult struct {
	HabitsImported  int                  `json:"habitsImported"`
	EntriesImported int                  `json:"entriesImported"`
	RowsSkipped     int                  `json:"rowsSkipped"`
	Archive         *model.UploadArchive `json:"archive,omitempty"`
}

// ManualEntryInput 手动录入的一条数值数据
type ManualEntryInput struct {
	Value  float64
	Date   string
	Source string
}

type UploadService struct {
	HabitRepo   *repository.HabitRepository
	DataRepo    *repository.UploadedDataRepository
	ArchiveRepo *repository.UploadArchiveRepository
	Storage     StorageProvider
	Cache       InsightCache
}

func NewUploadService(
	habitRepo *repository.HabitRepository,
	dataRepo *repository.UploadedDataRepository,
	archiveRepo *repository.UploadArchiveRepository,
	storage StorageProvider,
	cache InsightCache,
) *UploadService {
	if cache == nil {
		cache = NoopInsightCache{}
	}
	return &UploadService{
		HabitRepo:   habitRepo,
		DataRepo:    dataRepo,
		ArchiveRepo: archiveRepo,
		Storage:     storage,
		Cache:       cache,
	}
}

// sheetRow 表头到单元格的映射；单元格缺失时不存在对应的键
type sheetRow map[string]string

func (r sheetRow) get(column string) string {
	return strings.TrimSpace(r[column])
}

func (r sheetRow) has(column string) bool {
	_, ok := r[column]
	return ok
}

type parsedRows struct {
	habits  []model.Habit
	entries []model.UploadedData
	skipped int
}

// Import 解析 CSV / XLSX 并写入习惯记录和数值数据，原文件另行存档
func (s *UploadService) Import(ctx context.Context, userID uint, filename string, reader io.Reader, size int64) (*ImportResult, error) {
	ctx, span := tracing.StartSpan(ctx, "UploadService.Import",
		attribute.Int64("user.id", int64(userID)), attribute.String("upload.filename", filename))
	defer span.End()

	ext, err := util.UploadExtension(filename)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var rows []sheetRow
	switch ext {
	case util.ExtCSV:
		rows, err = readCSVRows(bytes.NewReader(data))
	case util.ExtXLSX:
		rows, err = readXLSXRows(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ext, err)
	}

	parsed := routeRows(userID, rows, ext == util.ExtXLSX)
	if err := s.save(parsed); err != nil {
		return nil, err
	}

	monitoring.HabitsLogged.WithLabelValues("upload").Add(float64(len(parsed.habits)))
	monitoring.UploadRows.WithLabelValues("habit").Add(float64(len(parsed.habits)))
	monitoring.UploadRows.WithLabelValues("entry").Add(float64(len(parsed.entries)))
	monitoring.UploadRows.WithLabelValues("skipped").Add(float64(parsed.skipped))

	result := &ImportResult{
		HabitsImported:  len(parsed.habits),
		EntriesImported: len(parsed.entries),
		RowsSkipped:     parsed.skipped,
	}
	result.Archive = s.archive(ctx, userID, filename, ext, data, result)

	if len(parsed.habits) > 0 {
		invalidateInsights(ctx, s.Cache, userID)
	}
	return result, nil
}

// save 习惯记录和数值数据在同一个事务中写入，任一失败全部回滚
func (s *UploadService) save(parsed parsedRows) error {
	return s.HabitRepo.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewHabitRepository(tx).CreateBatch(parsed.habits); err != nil {
			return fmt.Errorf("save habits: %w", err)
		}
		if err := repository.NewUploadedDataRepository(tx).CreateBatch(parsed.entries); err != nil {
			return fmt.Errorf("save entries: %w", err)
		}
		return nil
	})
}

// archive 存档失败不影响已导入的数据，只记录日志
func (s *UploadService) archive(ctx context.Context, userID uint, filename, ext string, data []byte, result *ImportResult) *model.UploadArchive {
	archive := &model.UploadArchive{
		UserID:          userID,
		OriginalName:    path.Base(filename),
		HabitsImported:  result.HabitsImported,
		EntriesImported: result.EntriesImported,
		RowsSkipped:     result.RowsSkipped,
	}

	if s.Storage != nil {
		key := fmt.Sprintf("uploads/%d/%s%s", userID, uuid.NewString(), ext)
		url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), archiveContentTypes[ext])
		if err != nil {
			logger.Log.Warn("archive upload failed", zap.Uint("userID", userID), zap.String("key", key), zap.Error(err))
		} else {
			archive.ObjectKey = key
			archive.URL = url
		}
	}

	if err := s.ArchiveRepo.Create(archive); err != nil {
		logger.Log.Warn("save upload archive failed", zap.Uint("userID", userID), zap.Error(err))
		// 没有存档记录的文件无从查找，直接删掉
		if archive.ObjectKey != "" {
			if delErr := s.Storage.Delete(ctx, archive.ObjectKey); delErr != nil {
				logger.Log.Warn("delete orphaned archive failed", zap.String("key", archive.ObjectKey), zap.Error(delErr))
			}
		}
		return nil
	}
	return archive
}

func (s *UploadService) AddManualEntry(userID uint, in ManualEntryInput) (*model.UploadedData, error) {
	if in.Value == 0 || strings.TrimSpace(in.Date) == "" {
		return nil, util.ErrValueRequired
	}
	date, err := analytics.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrInvalidDate, in.Date)
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = util.DefaultManualSource
	}

	entry := &model.UploadedData{
		UserID: userID,
		Source: source,
		Value:  in.Value,
		Date:   date,
	}
	if err := s.DataRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return entry, nil
}

func (s *UploadService) ListArchives(userID uint) ([]model.UploadArchive, error) {
	return s.ArchiveRepo.ListByUser(userID, archiveListLimit)
}

func readCSVRows(r io.Reader) ([]sheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	header = normalizeHeader(header)

	var rows []sheetRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(sheetRow, len(header))
		for i, column := range header {
			if column == "" {
				continue
			}
			// 表头中存在的列都算“有值”，缺失的尾部单元格视为空串
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSXRows(r io.Reader) ([]sheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := normalizeHeader(records[0])
	rows := make([]sheetRow, 0, len(records)-1)
	for idx, record := range records[1:] {
		row := make(sheetRow, len(header))
		for i, column := range header {
			// 空单元格不产生键
			if column == "" || i >= len(record) || record[i] == "" {
				continue
			}
			// 数字 0 与空单元格等价；status 只看是否存在，0 表示未完成
			if column != "status" && isNumericZero(f, sheets[0], i+1, idx+2, record[i]) {
				continue
			}
			row[column] = record[i]
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// isNumericZero 数字类型且值为 0 的单元格；文本 "0" 不算
func isNumericZero(f *excelize.File, sheet string, col, row int, raw string) bool {
	if v, err := strconv.ParseFloat(raw, 64); err != nil || v != 0 {
		return false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false
	}
	return typ != excelize.CellTypeSharedString && typ != excelize.CellTypeInlineString
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// routeRows 有 habit_name/date/status 的行为习惯记录，否则有 value/date 的行为数值数据，其余忽略
func routeRows(userID uint, rows []sheetRow, excelDates bool) parsedRows {
	var out parsedRows
	for _, row := range rows {
		name := row.get("habit_name")
		rawDate := row.get("date")

		switch {
		case name != "" && rawDate != "" && row.has("status"):
			date, err := parseRowDate(rawDate, excelDates)
			if err != nil {
				out.skipped++
				continue
			}
			out.habits = append(out.habits, model.Habit{
				UserID:    userID,
				HabitName: name,
				Date:      date,
				Status:    int(analytics.NormalizeStatus(row.get("status"))),
			})
		case row.get("value") != "" && rawDate != "":
			value, err := strconv.ParseFloat(row.get("value"), 64)
			if err != nil {
				out.skipped++
				continue
			}
			date, err := parseRowDate(rawDate, excelDates)
			if err != nil {
				out.skipped++
				continue
			}
			source := row.get("source")
			if source == "" {
				source = util.DefaultUploadSource
			}
			out.entries = append(out.entries, model.UploadedData{
				UserID: userID,
				Source: source,
				Value:  value,
				Date:   date,
			})
		}
	}
	return out
}

// parseRowDate XLSX 中日期单元格的原始值是 Excel 序列号
func parseRowDate(raw string, excelDates bool) (time.Time, error) {
	date, err := analytics.ParseDate(raw)
	if err == nil || !excelDates {
		return date, err
	}

	serial, convErr := strconv.ParseFloat(raw, 64)
	if convErr != nil {
		return time.Time{}, err
	}
	t, convErr := excelize.ExcelDateToTime(serial, false)
	if convErr != nil {
		return time.Time{}, err
	}
	return analytics.CivilDate(t), nil
}
