// Package domain defines the persistence models for the student portal:
// reference rows (students, subjects, teachers), timetable entries, and the
// chat turns exchanged with the assistant. These types are mapped with GORM
// and shared by the repository and service layers.
package domain

import "time"

// Student is a student profile row. The ID is the institutional student
// number (e.g. "SV001") and doubles as the chat identity of a student.
//
// Fields:
//   - ID: student number, primary key.
//   - Name: full display name; used to order option lists.
//   - Major / ClassName: enrolment facts surfaced to the assistant.
//   - BirthDate: free-form date as stored by the portal.
//   - Gender / Phone / Email: contact facts surfaced to the assistant.
type Student struct {
	ID        string `json:"masv"        gorm:"type:varchar(32);primaryKey"`
	Name      string `json:"tensv"       gorm:"type:varchar(255);not null;index"`
	Major     string `json:"chuyennganh" gorm:"type:varchar(255)"`
	ClassName string `json:"lop"         gorm:"type:varchar(64)"`
	BirthDate string `json:"ngaysinh"    gorm:"type:varchar(32)"`
	Gender    string `json:"gioitinh"    gorm:"type:varchar(16)"`
	Phone     string `json:"sdt"         gorm:"type:varchar(32)"`
	Email     string `json:"email"       gorm:"type:varchar(255)"`
}

// TableName returns the database table name for Student.
func (Student) TableName() string { return "students" }

// Subject is a course that can be scheduled.
type Subject struct {
	ID   string `json:"mamh"  gorm:"type:varchar(32);primaryKey"`
	Name string `json:"tenmh" gorm:"type:varchar(255);not null;index"`
}

// TableName returns the database table name for Subject.
func (Subject) TableName() string { return "subjects" }

// Teacher is a lecturer that can be assigned to a schedule.
type Teacher struct {
	ID   string `json:"magv"  gorm:"type:varchar(32);primaryKey"`
	Name string `json:"tengv" gorm:"type:varchar(255);not null;index"`
}

// TableName returns the database table name for Teacher.
func (Teacher) TableName() string { return "teachers" }

// Schedule is one recurring class slot: a weekday and period in a room for a
// date range, binding a student, a subject and a teacher.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Weekday: 2..7 for Monday..Saturday, 8 for Sunday.
//   - Period: 1..4, see PeriodRange.
//   - Room: free-form room code.
//   - StudentID / SubjectID / TeacherID: references to the owning rows.
//   - StartDate / EndDate: inclusive "YYYY-MM-DD" range; the fixed-width
//     format keeps string comparison equal to date comparison.
//   - CreatedAt: managed by GORM.
type Schedule struct {
	ID        string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Weekday   int       `json:"thu"         gorm:"not null;index:idx_schedule_slot,priority:1"`
	Period    int       `json:"ca"          gorm:"not null;index:idx_schedule_slot,priority:2"`
	Room      string    `json:"phong"       gorm:"type:varchar(64);not null;index:idx_schedule_slot,priority:3"`
	StudentID string    `json:"masv"        gorm:"type:varchar(32);not null;index"`
	SubjectID string    `json:"mamh"        gorm:"type:varchar(32);not null"`
	TeacherID string    `json:"magv"        gorm:"type:varchar(32);not null"`
	StartDate string    `json:"ngaybatdau"  gorm:"type:varchar(10);not null"`
	EndDate   string    `json:"ngayketthuc" gorm:"type:varchar(10);not null"`
	CreatedAt time.Time `json:"created_at"`

	Student Student `json:"-" gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Subject Subject `json:"-" gorm:"foreignKey:SubjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Teacher Teacher `json:"-" gorm:"foreignKey:TeacherID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Schedule.
func (Schedule) TableName() string { return "schedules" }

// ChatTurn is one completed exchange: what the user said and what the model
// replied. Turns are immutable once recorded.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - StudentID: owner of a persisted turn. In-memory admin sessions key turns
//     by identity instead and leave it empty.
//   - UserInput / ModelReply: the exchange.
//   - CreatedAt: when the exchange completed; the ordering key.
type ChatTurn struct {
	ID         string    `json:"-"              gorm:"type:char(36);primaryKey"`
	StudentID  string    `json:"-"              gorm:"type:varchar(32);not null;index:idx_student_turns,priority:1"`
	UserInput  string    `json:"nguoidung_chat" gorm:"type:text;not null"`
	ModelReply string    `json:"ai_rep"         gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"thoigianchat"   gorm:"index:idx_student_turns,priority:2"`

	Student Student `json:"-" gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatTurn.
func (ChatTurn) TableName() string { return "chat_turns" }

// Models lists every persisted type, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{&Student{}, &Subject{}, &Teacher{}, &Schedule{}, &ChatTurn{}, &Idempotency{}}
}
