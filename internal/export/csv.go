// Package export builds the flat-row CSV projections of the student and
// teacher collections. Row building is kept free of HTTP and database
// concerns: handlers load the records and stream the rows.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/inv-nithin007/School-manager/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// Header rows, one per export kind.
var (
	StudentHeader = []string{
		"ID", "First Name", "Last Name", "Email", "Phone Number",
		"Roll Number", "Class Grade", "Date of Birth", "Admission Date",
		"Status", "Assigned Teacher", "Created At", "Updated At",
	}

	TeacherHeader = []string{
		"ID", "First Name", "Last Name", "Email", "Phone Number",
		"Subject Specialization", "Employee ID", "Date of Joining",
		"Status", "Students Count", "Created At", "Updated At",
	}

	StudentDetailedHeader = []string{
		"ID", "Username", "First Name", "Last Name", "Email", "Phone Number",
		"Roll Number", "Class Grade", "Date of Birth", "Admission Date",
		"Status", "Assigned Teacher", "Created At", "Updated At",
	}

	TeacherDetailedHeader = []string{
		"ID", "Username", "First Name", "Last Name", "Email", "Phone Number",
		"Subject Specialization", "Employee ID", "Date of Joining",
		"Status", "Students Count", "Assigned Students", "Created At", "Updated At",
	}

	CombinedHeader = []string{
		"Record Type", "ID", "First Name", "Last Name", "Email",
		"Phone Number", "Identifier", "Detail", "Status", "Related",
		"Created At",
	}
)

// StudentRow projects one student onto the students export columns. The
// assigned teacher relation must be preloaded for the derived name column.
func StudentRow(s *model.Student) []string {
	teacherName := "None"
	if name := s.AssignedTeacherName(); name != nil {
		teacherName = *name
	}

	return []string{
		strconv.FormatUint(uint64(s.ID), 10),
		s.FirstName,
		s.LastName,
		s.Email,
		s.PhoneNumber,
		s.RollNumber,
		s.ClassGrade,
		s.DateOfBirth,
		s.AdmissionDate,
		s.Status,
		teacherName,
		s.CreatedAt.Format(timestampLayout),
		s.UpdatedAt.Format(timestampLayout),
	}
}

// TeacherRow projects one teacher onto the teachers export columns.
// studentCount is the number of students currently assigned to the teacher.
func TeacherRow(t *model.Teacher, studentCount int64) []string {
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.FirstName,
		t.LastName,
		t.Email,
		t.PhoneNumber,
		t.SubjectSpecialization,
		t.EmployeeID,
		t.DateOfJoining,
		t.Status,
		strconv.FormatInt(studentCount, 10),
		t.CreatedAt.Format(timestampLayout),
		t.UpdatedAt.Format(timestampLayout),
	}
}

// StudentDetailedRow adds the linked account's username to the student row
func StudentDetailedRow(s *model.Student, username string) []string {
	row := StudentRow(s)
	detailed := make([]string, 0, len(row)+1)
	detailed = append(detailed, row[0], username)
	detailed = append(detailed, row[1:]...)
	return detailed
}

// TeacherDetailedRow adds the linked account's username and the names of the
// assigned students to the teacher row
func TeacherDetailedRow(t *model.Teacher, username string, students []model.Student) []string {
	names := ""
	for i := range students {
		if i > 0 {
			names += "; "
		}
		names += students[i].FullName()
	}

	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		username,
		t.FirstName,
		t.LastName,
		t.Email,
		t.PhoneNumber,
		t.SubjectSpecialization,
		t.EmployeeID,
		t.DateOfJoining,
		t.Status,
		strconv.Itoa(len(students)),
		names,
		t.CreatedAt.Format(timestampLayout),
		t.UpdatedAt.Format(timestampLayout),
	}
}

// CombinedStudentRow projects a student onto the combined export columns
func CombinedStudentRow(s *model.Student) []string {
	teacherName := "None"
	if name := s.AssignedTeacherName(); name != nil {
		teacherName = *name
	}

	return []string{
		"Student",
		strconv.FormatUint(uint64(s.ID), 10),
		s.FirstName,
		s.LastName,
		s.Email,
		s.PhoneNumber,
		s.RollNumber,
		s.ClassGrade,
		s.Status,
		teacherName,
		s.CreatedAt.Format(timestampLayout),
	}
}

// CombinedTeacherRow projects a teacher onto the combined export columns
func CombinedTeacherRow(t *model.Teacher, studentCount int64) []string {
	return []string{
		"Teacher",
		strconv.FormatUint(uint64(t.ID), 10),
		t.FirstName,
		t.LastName,
		t.Email,
		t.PhoneNumber,
		t.EmployeeID,
		t.SubjectSpecialization,
		t.Status,
		strconv.FormatInt(studentCount, 10) + " students",
		t.CreatedAt.Format(timestampLayout),
	}
}

// TimestampedFilename builds the attachment filename for the detailed and
// combined exports, e.g. school_data_20240101_150405.csv
func TimestampedFilename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405"))
}
