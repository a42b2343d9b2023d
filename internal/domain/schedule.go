package domain

import "strconv"

// Weekday and period bounds accepted for a schedule slot.
const (
	MinWeekday = 2
	MaxWeekday = 8 // Sunday
	MinPeriod  = 1
	MaxPeriod  = 4
)

// DateLayout is the wire and storage format of schedule dates.
const DateLayout = "2006-01-02"

var periodRanges = map[int]string{
	1: "7:00 - 9:30",
	2: "9:35 - 12:05",
	3: "12:35 - 15:05",
	4: "15:10 - 17:40",
}

// WeekdayLabel renders a weekday number the way the timetable prints it.
func WeekdayLabel(d int) string {
	if d == MaxWeekday {
		return "Chủ nhật"
	}
	return "Thứ " + strconv.Itoa(d)
}

// PeriodRange returns the wall-clock span of a period, or "" if unknown.
func PeriodRange(p int) string { return periodRanges[p] }

// PeriodLabel renders a period with its wall-clock span, e.g. "Ca 1 (7:00 - 9:30)".
func PeriodLabel(p int) string {
	r := PeriodRange(p)
	if r == "" {
		return "Ca " + strconv.Itoa(p)
	}
	return "Ca " + strconv.Itoa(p) + " (" + r + ")"
}

// ScheduleView is a schedule row joined with its subject and teacher names.
type ScheduleView struct {
	ID          string `json:"id"`
	Weekday     int    `json:"thu"`
	Period      int    `json:"ca"`
	Room        string `json:"phong"`
	StudentID   string `json:"masv"`
	StudentName string `json:"tensv"`
	SubjectID   string `json:"mamh"`
	SubjectName string `json:"tenmh"`
	TeacherID   string `json:"magv"`
	TeacherName string `json:"tengv"`
	StartDate   string `json:"ngaybatdau"`
	EndDate     string `json:"ngayketthuc"`
}

// WeekdayLabel is the printable weekday of the row.
func (v ScheduleView) WeekdayLabel() string { return WeekdayLabel(v.Weekday) }

// PeriodLabel is the printable period of the row.
func (v ScheduleView) PeriodLabel() string { return PeriodLabel(v.Period) }
