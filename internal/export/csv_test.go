package export

import (
	"testing"
	"time"

	"github.com/inv-nithin007/School-manager/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTeacher() *model.Teacher {
	return &model.Teacher{
		ID:                    7,
		FirstName:             "John",
		LastName:              "Teacher",
		Email:                 "teacher@example.com",
		PhoneNumber:           "1234567890",
		SubjectSpecialization: "Math",
		EmployeeID:            "T001",
		DateOfJoining:         "2024-01-01",
		Status:                model.StatusActive,
		CreatedAt:             time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:             time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func sampleStudent(teacher *model.Teacher) *model.Student {
	var teacherID *uint
	if teacher != nil {
		teacherID = &teacher.ID
	}
	return &model.Student{
		ID:                3,
		FirstName:         "Jane",
		LastName:          "Student",
		Email:             "student@example.com",
		PhoneNumber:       "9876543210",
		RollNumber:        "S001",
		ClassGrade:        "10",
		DateOfBirth:       "2005-01-01",
		AdmissionDate:     "2024-01-01",
		Status:            model.StatusActive,
		AssignedTeacherID: teacherID,
		AssignedTeacher:   teacher,
		CreatedAt:         time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStudentRow(t *testing.T) {
	row := StudentRow(sampleStudent(sampleTeacher()))
	require.Len(t, row, len(StudentHeader))

	assert.Equal(t, "3", row[0])
	assert.Equal(t, "Jane", row[1])
	assert.Equal(t, "S001", row[5])
	assert.Equal(t, "John Teacher", row[10])
	assert.Equal(t, "2024-02-01 09:00:00", row[11])
}

func TestStudentRowWithoutTeacher(t *testing.T) {
	row := StudentRow(sampleStudent(nil))
	require.Len(t, row, len(StudentHeader))
	assert.Equal(t, "None", row[10])
}

func TestTeacherRow(t *testing.T) {
	row := TeacherRow(sampleTeacher(), 4)
	require.Len(t, row, len(TeacherHeader))

	assert.Equal(t, "7", row[0])
	assert.Equal(t, "T001", row[6])
	assert.Equal(t, "4", row[9])
}

func TestStudentDetailedRow(t *testing.T) {
	row := StudentDetailedRow(sampleStudent(sampleTeacher()), "student@example.com")
	require.Len(t, row, len(StudentDetailedHeader))

	assert.Equal(t, "3", row[0])
	assert.Equal(t, "student@example.com", row[1])
	assert.Equal(t, "Jane", row[2])
}

func TestTeacherDetailedRow(t *testing.T) {
	students := []model.Student{
		{FirstName: "Jane", LastName: "Student"},
		{FirstName: "Tom", LastName: "Pupil"},
	}
	row := TeacherDetailedRow(sampleTeacher(), "teacher@example.com", students)
	require.Len(t, row, len(TeacherDetailedHeader))

	assert.Equal(t, "teacher@example.com", row[1])
	assert.Equal(t, "2", row[10])
	assert.Equal(t, "Jane Student; Tom Pupil", row[11])
}

func TestCombinedRows(t *testing.T) {
	teacherRow := CombinedTeacherRow(sampleTeacher(), 2)
	require.Len(t, teacherRow, len(CombinedHeader))
	assert.Equal(t, "Teacher", teacherRow[0])
	assert.Equal(t, "2 students", teacherRow[9])

	studentRow := CombinedStudentRow(sampleStudent(sampleTeacher()))
	require.Len(t, studentRow, len(CombinedHeader))
	assert.Equal(t, "Student", studentRow[0])
	assert.Equal(t, "John Teacher", studentRow[9])
}

func TestTimestampedFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "school_data_20240315_143005.csv", TimestampedFilename("school_data", now))
}
