package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fitpulse/backend/internal/model"
	"fitpulse/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoInstances  = errors.New("该日期区间内没有课程实例")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 将日期区间内的课程实例连同预约数导出为 Excel (.xlsx)，供前台打印周课表
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 每行一个课程实例，按 class_date + start_time 排序（依赖仓储层排序）
type ExportService interface {
	// ExportSchedule 导出日期区间内的课表为 Excel
	ExportSchedule(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "课表"
//   - 列：日期 | 星期 | 时间 | 课程 | 类型 | 容量 | 已约 | 余位 | 状态
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSchedule(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	// 1. 查询实例
	instances, err := s.repo.Instance.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询实例失败", zap.Error(err))
		return nil, "", err
	}
	if len(instances) == 0 {
		return nil, "", ErrExportNoInstances
	}

	// 2. 批量统计预约数
	ids := make([]string, 0, len(instances))
	for i := range instances {
		ids = append(ids, instances[i].InstanceID)
	}
	counts, err := s.repo.Booking.CountByInstances(ctx, ids)
	if err != nil {
		s.logger.Error("统计预约数失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 14)
	f.SetColWidth(sheetName, "D", "D", 22)
	f.SetColWidth(sheetName, "E", "I", 10)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1",
		fmt.Sprintf("课表 %s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "I1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"日期", "星期", "时间", "课程", "类型", "容量", "已约", "余位", "状态"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	// 数据行
	dayNames := map[time.Weekday]string{
		time.Monday: "周一", time.Tuesday: "周二", time.Wednesday: "周三",
		time.Thursday: "周四", time.Friday: "周五", time.Saturday: "周六", time.Sunday: "周日",
	}
	sessionNames := map[string]string{model.SessionPro: "专业", model.SessionAmateur: "大众"}

	row := 3
	for i := range instances {
		inst := &instances[i]
		booked := counts[inst.InstanceID]
		remaining := int64(inst.MaxParticipants) - booked
		if remaining < 0 {
			remaining = 0
		}
		status := "正常"
		if inst.IsCancelled {
			status = "已取消"
		}

		endText := inst.StartTime
		if endAt, err := inst.EndAt(); err == nil {
			endText = fmt.Sprintf("%s-%s", inst.StartTime, endAt.Format("15:04"))
		}

		f.SetCellValue(sheetName, cell("A", row), inst.ClassDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), dayNames[inst.ClassDate.Weekday()])
		f.SetCellValue(sheetName, cell("C", row), endText)
		f.SetCellValue(sheetName, cell("D", row), inst.ClassName)
		f.SetCellValue(sheetName, cell("E", row), sessionNames[inst.SessionType])
		f.SetCellValue(sheetName, cell("F", row), inst.MaxParticipants)
		f.SetCellValue(sheetName, cell("G", row), booked)
		f.SetCellValue(sheetName, cell("H", row), remaining)
		f.SetCellValue(sheetName, cell("I", row), status)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
