package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/registry"
	"github.com/inv-nithin007/School-manager/pkg/database"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StudentRequest defines the payload for student creation
type StudentRequest struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number"`
	RollNumber      string `json:"roll_number" validate:"required"`
	ClassGrade      string `json:"class_grade" validate:"required"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	AdmissionDate   string `json:"admission_date" validate:"required,datetime=2006-01-02"`
	Status          string `json:"status" validate:"omitempty,oneof=active inactive"`
	AssignedTeacher *uint  `json:"assigned_teacher"`
}

// StudentUpdateRequest defines the payload for partial student updates.
// Nil fields are left unchanged.
type StudentUpdateRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number"`
	RollNumber      *string `json:"roll_number"`
	ClassGrade      *string `json:"class_grade"`
	DateOfBirth     *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	AdmissionDate   *string `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	Status          *string `json:"status" validate:"omitempty,oneof=active inactive"`
	AssignedTeacher *uint   `json:"assigned_teacher"`
	ClearTeacher    bool    `json:"clear_assigned_teacher"`
}

// StudentResponse augments the student model with the derived teacher name
type StudentResponse struct {
	model.Student
	AssignedTeacherName *string `json:"assigned_teacher_name"`
}

func studentResponse(s *model.Student) StudentResponse {
	return StudentResponse{Student: *s, AssignedTeacherName: s.AssignedTeacherName()}
}

func studentResponses(students []model.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, studentResponse(&students[i]))
	}
	return out
}

// CreateStudent provisions a student record together with its login account
// and role profile as one atomic unit
func CreateStudent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStudentOperation("create")

	var req StudentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Status == "" {
		req.Status = model.StatusActive
	}

	// Field-specific duplicate checks; the unique indexes remain the
	// backstop under concurrent submissions
	var count int64
	database.GetDB().Model(&model.Student{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Student email already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a student with this email already exists"})
	}

	database.GetDB().Model(&model.Student{}).Where("roll_number = ?", req.RollNumber).Count(&count)
	if count > 0 {
		log.Warn("Roll number already exists", zap.String("roll_number", req.RollNumber))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a student with this roll number already exists"})
	}

	database.GetDB().Model(&model.User{}).Where("username = ? OR email = ?", req.Email, req.Email).Count(&count)
	if count > 0 {
		log.Warn("Account email already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "an account with this email already exists"})
	}

	// The assigned teacher must exist at write time
	if req.AssignedTeacher != nil {
		var teacher model.Teacher
		if err := database.GetDB().First(&teacher, *req.AssignedTeacher).Error; err != nil {
			log.Warn("Assigned teacher not found", zap.Uint("teacher_id", *req.AssignedTeacher))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned teacher does not exist"})
		}
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var student model.Student
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		user, err := registry.ProvisionIdentity(tx, model.RoleStudent, req.Email, req.FirstName, req.LastName)
		if err != nil {
			return err
		}

		student = model.Student{
			UserID:            user.ID,
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Email:             req.Email,
			PhoneNumber:       req.PhoneNumber,
			RollNumber:        req.RollNumber,
			ClassGrade:        req.ClassGrade,
			DateOfBirth:       req.DateOfBirth,
			AdmissionDate:     req.AdmissionDate,
			Status:            req.Status,
			AssignedTeacherID: req.AssignedTeacher,
		}
		return tx.Create(&student).Error
	})
	if err != nil {
		log.Error("Failed to create student",
			zap.String("email", req.Email),
			zap.String("roll_number", req.RollNumber),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to create student"})
	}

	go updateStudentCount()

	database.GetDB().Preload("AssignedTeacher").First(&student, student.ID)

	log.Info("Student created",
		zap.Uint("id", student.ID),
		zap.String("roll_number", student.RollNumber))
	return c.JSON(http.StatusCreated, studentResponse(&student))
}

// GetStudent retrieves a student by ID
func GetStudent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStudentOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var student model.Student
	if err := database.GetDB().Preload("AssignedTeacher").First(&student, id).Error; err != nil {
		log.Warn("Student not found", zap.Uint64("student_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	return c.JSON(http.StatusOK, studentResponse(&student))
}

// ListStudents retrieves students with filtering, search, ordering and
// pagination
func ListStudents(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStudentOperation("list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	filters := func(db *gorm.DB) *gorm.DB {
		if status := c.QueryParam("status"); status != "" {
			db = db.Where("status = ?", status)
		}
		if grade := c.QueryParam("class_grade"); grade != "" {
			db = db.Where("class_grade = ?", grade)
		}
		if teacherID := c.QueryParam("assigned_teacher"); teacherID != "" {
			if id, err := strconv.ParseUint(teacherID, 10, 32); err == nil {
				db = db.Where("assigned_teacher_id = ?", id)
			}
		}
		if search := c.QueryParam("search"); search != "" {
			pattern := "%" + search + "%"
			db = db.Where(
				"LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(roll_number) LIKE LOWER(?)",
				pattern, pattern, pattern, pattern)
		}
		return db
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var students []model.Student
	result := database.GetDB().Model(&model.Student{}).
		Scopes(filters).
		Preload("AssignedTeacher").
		Order(orderClause(c.QueryParam("ordering"))).
		Limit(limit).
		Offset(offset).
		Find(&students)
	if result.Error != nil {
		log.Error("Failed to retrieve students", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve students"})
	}

	var total int64
	database.GetDB().Model(&model.Student{}).Scopes(filters).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"students": studentResponses(students),
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateStudent partially updates a student record and keeps the linked
// account in sync when email or name fields change
func UpdateStudent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStudentOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student ID"})
	}

	var req StudentUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var student model.Student
	if err := database.GetDB().First(&student, id).Error; err != nil {
		log.Warn("Student not found for update", zap.Uint64("student_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	var count int64
	if req.Email != nil && *req.Email != student.Email {
		database.GetDB().Model(&model.Student{}).
			Where("email = ? AND id != ?", *req.Email, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a student with this email already exists"})
		}
	}
	if req.RollNumber != nil && *req.RollNumber != student.RollNumber {
		database.GetDB().Model(&model.Student{}).
			Where("roll_number = ? AND id != ?", *req.RollNumber, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a student with this roll number already exists"})
		}
	}

	// The assigned teacher must exist at write time
	if req.AssignedTeacher != nil {
		var teacher model.Teacher
		if err := database.GetDB().First(&teacher, *req.AssignedTeacher).Error; err != nil {
			log.Warn("Assigned teacher not found", zap.Uint("teacher_id", *req.AssignedTeacher))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned teacher does not exist"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.FirstName != nil {
			student.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			student.LastName = *req.LastName
		}
		if req.Email != nil {
			student.Email = *req.Email
		}
		if req.PhoneNumber != nil {
			student.PhoneNumber = *req.PhoneNumber
		}
		if req.RollNumber != nil {
			student.RollNumber = *req.RollNumber
		}
		if req.ClassGrade != nil {
			student.ClassGrade = *req.ClassGrade
		}
		if req.DateOfBirth != nil {
			student.DateOfBirth = *req.DateOfBirth
		}
		if req.AdmissionDate != nil {
			student.AdmissionDate = *req.AdmissionDate
		}
		if req.Status != nil {
			student.Status = *req.Status
		}
		if req.AssignedTeacher != nil {
			student.AssignedTeacherID = req.AssignedTeacher
		}
		if req.ClearTeacher {
			student.AssignedTeacherID = nil
		}

		// Update via a column map so a cleared teacher reference is written
		// as NULL instead of being skipped as a zero value
		if err := tx.Model(&student).
			Updates(map[string]interface{}{
				"first_name":          student.FirstName,
				"last_name":           student.LastName,
				"email":               student.Email,
				"phone_number":        student.PhoneNumber,
				"roll_number":         student.RollNumber,
				"class_grade":         student.ClassGrade,
				"date_of_birth":       student.DateOfBirth,
				"admission_date":      student.AdmissionDate,
				"status":              student.Status,
				"assigned_teacher_id": student.AssignedTeacherID,
			}).Error; err != nil {
			return err
		}

		// The student record is the source of truth for the linked account
		return registry.SyncIdentity(tx, student.UserID, req.Email, req.FirstName, req.LastName)
	})
	if err != nil {
		log.Error("Failed to update student", zap.Uint64("student_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to update student"})
	}

	database.GetDB().Preload("AssignedTeacher").First(&student, student.ID)

	log.Info("Student updated", zap.Uint("id", student.ID))
	return c.JSON(http.StatusOK, studentResponse(&student))
}

// DeleteStudent removes a student record. The linked account is kept.
func DeleteStudent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordStudentOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student ID"})
	}

	var student model.Student
	if err := database.GetDB().First(&student, id).Error; err != nil {
		log.Warn("Student not found for deletion", zap.Uint64("student_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&student).Error; err != nil {
		log.Error("Failed to delete student", zap.Uint64("student_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete student"})
	}

	go updateStudentCount()

	log.Info("Student deleted",
		zap.Uint("id", student.ID),
		zap.String("roll_number", student.RollNumber))
	return c.NoContent(http.StatusNoContent)
}

// Helper to refresh the active student gauge
func updateStudentCount() {
	var count int64
	database.GetDB().Model(&model.Student{}).
		Where("status = ?", model.StatusActive).
		Count(&count)
	prometheus.UpdateActiveStudents(count)
}
