package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/inv-nithin007/School-manager/internal/export"
	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/pkg/database"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// writeCSV streams header and rows as a CSV attachment
func writeCSV(c echo.Context, filename string, header []string, rows [][]string) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// loadStudents fetches all students with the teacher relation preloaded
func loadStudents() ([]model.Student, error) {
	var students []model.Student
	err := database.GetDB().
		Preload("AssignedTeacher").
		Order("created_at desc").
		Find(&students).Error
	return students, err
}

// loadTeachers fetches all teachers with their assigned student counts
func loadTeachers() ([]model.Teacher, map[uint]int64, error) {
	var teachers []model.Teacher
	if err := database.GetDB().Order("created_at desc").Find(&teachers).Error; err != nil {
		return nil, nil, err
	}

	counts := make(map[uint]int64, len(teachers))
	for i := range teachers {
		var n int64
		if err := database.GetDB().Model(&model.Student{}).
			Where("assigned_teacher_id = ?", teachers[i].ID).
			Count(&n).Error; err != nil {
			return nil, nil, err
		}
		counts[teachers[i].ID] = n
	}
	return teachers, counts, nil
}

// ExportStudentsCSV exports all students as students.csv
func ExportStudentsCSV(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordExport("students")
	defer prometheus.TrackDBOperation("query")(time.Now())

	students, err := loadStudents()
	if err != nil {
		log.Error("Failed to load students for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export students"})
	}

	rows := make([][]string, 0, len(students))
	for i := range students {
		rows = append(rows, export.StudentRow(&students[i]))
	}

	log.Info("Exporting students CSV", zap.Int("count", len(rows)))
	return writeCSV(c, "students.csv", export.StudentHeader, rows)
}

// ExportTeachersCSV exports all teachers as teachers.csv
func ExportTeachersCSV(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordExport("teachers")
	defer prometheus.TrackDBOperation("query")(time.Now())

	teachers, counts, err := loadTeachers()
	if err != nil {
		log.Error("Failed to load teachers for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export teachers"})
	}

	rows := make([][]string, 0, len(teachers))
	for i := range teachers {
		rows = append(rows, export.TeacherRow(&teachers[i], counts[teachers[i].ID]))
	}

	log.Info("Exporting teachers CSV", zap.Int("count", len(rows)))
	return writeCSV(c, "teachers.csv", export.TeacherHeader, rows)
}

// ExportAllCSV exports students and teachers into one combined CSV
func ExportAllCSV(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordExport("all")
	defer prometheus.TrackDBOperation("query")(time.Now())

	students, err := loadStudents()
	if err != nil {
		log.Error("Failed to load students for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export data"})
	}
	teachers, counts, err := loadTeachers()
	if err != nil {
		log.Error("Failed to load teachers for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export data"})
	}

	rows := make([][]string, 0, len(students)+len(teachers))
	for i := range teachers {
		rows = append(rows, export.CombinedTeacherRow(&teachers[i], counts[teachers[i].ID]))
	}
	for i := range students {
		rows = append(rows, export.CombinedStudentRow(&students[i]))
	}

	filename := export.TimestampedFilename("school_data", time.Now())
	log.Info("Exporting combined CSV", zap.Int("count", len(rows)))
	return writeCSV(c, filename, export.CombinedHeader, rows)
}

// ExportStudentsDetailedCSV exports students including account usernames
func ExportStudentsDetailedCSV(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordExport("students_detailed")
	defer prometheus.TrackDBOperation("query")(time.Now())

	var students []model.Student
	if err := database.GetDB().
		Preload("AssignedTeacher").
		Preload("User").
		Order("created_at desc").
		Find(&students).Error; err != nil {
		log.Error("Failed to load students for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export students"})
	}

	rows := make([][]string, 0, len(students))
	for i := range students {
		rows = append(rows, export.StudentDetailedRow(&students[i], students[i].User.Username))
	}

	filename := export.TimestampedFilename("students_detailed", time.Now())
	log.Info("Exporting detailed students CSV", zap.Int("count", len(rows)))
	return writeCSV(c, filename, export.StudentDetailedHeader, rows)
}

// ExportTeachersDetailedCSV exports teachers including account usernames and
// the names of their assigned students
func ExportTeachersDetailedCSV(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordExport("teachers_detailed")
	defer prometheus.TrackDBOperation("query")(time.Now())

	var teachers []model.Teacher
	if err := database.GetDB().
		Preload("User").
		Order("created_at desc").
		Find(&teachers).Error; err != nil {
		log.Error("Failed to load teachers for export", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export teachers"})
	}

	rows := make([][]string, 0, len(teachers))
	for i := range teachers {
		var assigned []model.Student
		if err := database.GetDB().
			Where("assigned_teacher_id = ?", teachers[i].ID).
			Find(&assigned).Error; err != nil {
			log.Error("Failed to load assigned students", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to export teachers"})
		}
		rows = append(rows, export.TeacherDetailedRow(&teachers[i], teachers[i].User.Username, assigned))
	}

	filename := export.TimestampedFilename("teachers_detailed", time.Now())
	log.Info("Exporting detailed teachers CSV", zap.Int("count", len(rows)))
	return writeCSV(c, filename, export.TeacherDetailedHeader, rows)
}
