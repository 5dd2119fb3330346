package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
)

// ErrExportGenerateFail 生成 Excel 失败
var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

const (
	rosterSheet   = "报名名单"
	calendarTZ    = "Asia/Shanghai"
	calendarProID = "-//village-sports//events//CN"
)

// ═══════════════════════════════════════════════════════════
// ExportRegistrations 导出报名名单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：赛事标题 + 时间地点（合并单元格）
//   - 第 2 行：表头
//   - 第 3 行起：按报名时间排列的报名人

var rosterHeaders = []string{"序号", "姓名", "所属村", "联系电话", "健康声明", "报名时间"}

func (s *eventService) ExportRegistrations(ctx context.Context, actor policy.Actor, id string) ([]byte, string, error) {
	event, regs, err := s.roster(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}

	buf, err := buildRosterWorkbook(event, regs)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("event_id", id), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("报名名单_%s.xlsx", sanitizeFilename(event.Title))
	return buf.Bytes(), filename, nil
}

func buildRosterWorkbook(event *model.Event, regs []model.EventRegistration) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	widths := []float64{8, 14, 16, 16, 36, 20}
	for i, w := range widths {
		col := colName(i)
		if err := f.SetColWidth(rosterSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	// 标题行
	title := fmt.Sprintf("%s（%s · %s）", event.Title, event.StartTime.Format("2006-01-02 15:04"), event.Location)
	lastCol := colName(len(rosterHeaders) - 1)
	_ = f.SetCellValue(rosterSheet, "A1", title)
	_ = f.MergeCell(rosterSheet, "A1", cell(lastCol, 1))
	_ = f.SetCellStyle(rosterSheet, "A1", cell(lastCol, 1), headerStyle)

	// 表头
	for i, h := range rosterHeaders {
		_ = f.SetCellValue(rosterSheet, cell(colName(i), 2), h)
	}
	_ = f.SetCellStyle(rosterSheet, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	for i := range regs {
		r := &regs[i]
		row := i + 3
		village, phone := "", ""
		if r.User != nil {
			village = r.User.VillageName
			if r.User.Phone != nil {
				phone = *r.User.Phone
			}
		}
		values := []interface{}{i + 1, r.UserName(), village, phone, r.HealthDeclare, r.CreatedAt.Format("2006-01-02 15:04")}
		for j, v := range values {
			_ = f.SetCellValue(rosterSheet, cell(colName(j), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ═══════════════════════════════════════════════════════════
// Calendar 赛事 iCalendar 订阅
// ═══════════════════════════════════════════════════════════
//
// 每场赛事一个 VEVENT，UID 取赛事 ID。报名中的赛事为 TENTATIVE，其余为 CONFIRMED。

func (s *eventService) Calendar(ctx context.Context) ([]byte, error) {
	events, err := s.repo.Event.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询赛事日历失败", zap.Error(err))
		return nil, err
	}
	return []byte(buildCalendar(events, s.baseURL, time.Now())), nil
}

func buildCalendar(events []model.Event, baseURL string, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProID)
	cal.SetXWRCalName("乡村体育赛事")
	cal.SetXWRTimezone(calendarTZ)

	base := strings.TrimRight(baseURL, "/")
	for i := range events {
		e := &events[i]
		vevent := cal.AddEvent(e.EventID + "@village-sports")
		vevent.SetDtStampTime(now)
		vevent.SetModifiedAt(e.UpdatedAt)
		vevent.SetStartAt(e.StartTime)
		vevent.SetEndAt(e.StartTime.Add(defaultEventDuration))
		vevent.SetSummary(e.Title)
		vevent.SetLocation(e.Location)

		desc := fmt.Sprintf("主题：%s\n组织者：%s\n已报名：%d 人", e.Theme, e.OrganizerName(), e.ParticipantsCount)
		if e.Rule != "" {
			desc += "\n规则：" + e.Rule
		}
		vevent.SetDescription(desc)
		if base != "" {
			vevent.SetURL(base + "/api/v1/events/" + e.EventID)
		}

		if e.Status == model.EventStatusOpen {
			vevent.SetStatus(ics.ObjectStatusTentative)
		} else {
			vevent.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sanitizeFilename 去掉文件名中不允许的字符
func sanitizeFilename(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return r.Replace(name)
}
