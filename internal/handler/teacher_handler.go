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

// TeacherRequest defines the payload for teacher creation
type TeacherRequest struct {
	FirstName             string `json:"first_name" validate:"required"`
	LastName              string `json:"last_name" validate:"required"`
	Email                 string `json:"email" validate:"required,email"`
	PhoneNumber           string `json:"phone_number"`
	SubjectSpecialization string `json:"subject_specialization" validate:"required"`
	EmployeeID            string `json:"employee_id" validate:"required"`
	DateOfJoining         string `json:"date_of_joining" validate:"required,datetime=2006-01-02"`
	Status                string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// TeacherUpdateRequest defines the payload for partial teacher updates.
// Nil fields are left unchanged.
type TeacherUpdateRequest struct {
	FirstName             *string `json:"first_name"`
	LastName              *string `json:"last_name"`
	Email                 *string `json:"email" validate:"omitempty,email"`
	PhoneNumber           *string `json:"phone_number"`
	SubjectSpecialization *string `json:"subject_specialization"`
	EmployeeID            *string `json:"employee_id"`
	DateOfJoining         *string `json:"date_of_joining" validate:"omitempty,datetime=2006-01-02"`
	Status                *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// CreateTeacher provisions a teacher record together with its login account
// and role profile as one atomic unit
func CreateTeacher(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("create")

	var req TeacherRequest
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
	database.GetDB().Model(&model.Teacher{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Teacher email already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a teacher with this email already exists"})
	}

	database.GetDB().Model(&model.Teacher{}).Where("employee_id = ?", req.EmployeeID).Count(&count)
	if count > 0 {
		log.Warn("Employee ID already exists", zap.String("employee_id", req.EmployeeID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a teacher with this employee ID already exists"})
	}

	database.GetDB().Model(&model.User{}).Where("username = ? OR email = ?", req.Email, req.Email).Count(&count)
	if count > 0 {
		log.Warn("Account email already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "an account with this email already exists"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var teacher model.Teacher
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		user, err := registry.ProvisionIdentity(tx, model.RoleTeacher, req.Email, req.FirstName, req.LastName)
		if err != nil {
			return err
		}

		teacher = model.Teacher{
			UserID:                user.ID,
			FirstName:             req.FirstName,
			LastName:              req.LastName,
			Email:                 req.Email,
			PhoneNumber:           req.PhoneNumber,
			SubjectSpecialization: req.SubjectSpecialization,
			EmployeeID:            req.EmployeeID,
			DateOfJoining:         req.DateOfJoining,
			Status:                req.Status,
		}
		return tx.Create(&teacher).Error
	})
	if err != nil {
		log.Error("Failed to create teacher",
			zap.String("email", req.Email),
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to create teacher"})
	}

	go updateTeacherCount()

	log.Info("Teacher created",
		zap.Uint("id", teacher.ID),
		zap.String("employee_id", teacher.EmployeeID))
	return c.JSON(http.StatusCreated, teacher)
}

// GetTeacher retrieves a teacher by ID
func GetTeacher(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid teacher ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var teacher model.Teacher
	if err := database.GetDB().First(&teacher, id).Error; err != nil {
		log.Warn("Teacher not found", zap.Uint64("teacher_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}

	return c.JSON(http.StatusOK, teacher)
}

// ListTeachers retrieves teachers with filtering, search, ordering and
// pagination
func ListTeachers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("list")

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
		if subject := c.QueryParam("subject_specialization"); subject != "" {
			db = db.Where("subject_specialization = ?", subject)
		}
		if search := c.QueryParam("search"); search != "" {
			pattern := "%" + search + "%"
			db = db.Where(
				"LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(employee_id) LIKE LOWER(?)",
				pattern, pattern, pattern, pattern)
		}
		return db
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var teachers []model.Teacher
	result := database.GetDB().Model(&model.Teacher{}).
		Scopes(filters).
		Order(orderClause(c.QueryParam("ordering"))).
		Limit(limit).
		Offset(offset).
		Find(&teachers)
	if result.Error != nil {
		log.Error("Failed to retrieve teachers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve teachers"})
	}

	var total int64
	database.GetDB().Model(&model.Teacher{}).Scopes(filters).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"teachers": teachers,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateTeacher partially updates a teacher record and keeps the linked
// account in sync when email or name fields change
func UpdateTeacher(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid teacher ID"})
	}

	var req TeacherUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var teacher model.Teacher
	if err := database.GetDB().First(&teacher, id).Error; err != nil {
		log.Warn("Teacher not found for update", zap.Uint64("teacher_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}

	var count int64
	if req.Email != nil && *req.Email != teacher.Email {
		database.GetDB().Model(&model.Teacher{}).
			Where("email = ? AND id != ?", *req.Email, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a teacher with this email already exists"})
		}
	}
	if req.EmployeeID != nil && *req.EmployeeID != teacher.EmployeeID {
		database.GetDB().Model(&model.Teacher{}).
			Where("employee_id = ? AND id != ?", *req.EmployeeID, id).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "a teacher with this employee ID already exists"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.FirstName != nil {
			teacher.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			teacher.LastName = *req.LastName
		}
		if req.Email != nil {
			teacher.Email = *req.Email
		}
		if req.PhoneNumber != nil {
			teacher.PhoneNumber = *req.PhoneNumber
		}
		if req.SubjectSpecialization != nil {
			teacher.SubjectSpecialization = *req.SubjectSpecialization
		}
		if req.EmployeeID != nil {
			teacher.EmployeeID = *req.EmployeeID
		}
		if req.DateOfJoining != nil {
			teacher.DateOfJoining = *req.DateOfJoining
		}
		if req.Status != nil {
			teacher.Status = *req.Status
		}

		if err := tx.Save(&teacher).Error; err != nil {
			return err
		}

		// The teacher record is the source of truth for the linked account
		return registry.SyncIdentity(tx, teacher.UserID, req.Email, req.FirstName, req.LastName)
	})
	if err != nil {
		log.Error("Failed to update teacher", zap.Uint64("teacher_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to update teacher"})
	}

	log.Info("Teacher updated", zap.Uint("id", teacher.ID))
	return c.JSON(http.StatusOK, teacher)
}

// DeleteTeacher removes a teacher record. Students referencing the teacher
// have their assignment cleared in the same transaction; the linked account
// is kept.
func DeleteTeacher(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid teacher ID"})
	}

	var teacher model.Teacher
	if err := database.GetDB().First(&teacher, id).Error; err != nil {
		log.Warn("Teacher not found for deletion", zap.Uint64("teacher_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Student{}).
			Where("assigned_teacher_id = ?", teacher.ID).
			Update("assigned_teacher_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&teacher).Error
	})
	if err != nil {
		log.Error("Failed to delete teacher", zap.Uint64("teacher_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete teacher"})
	}

	go updateTeacherCount()

	log.Info("Teacher deleted",
		zap.Uint("id", teacher.ID),
		zap.String("employee_id", teacher.EmployeeID))
	return c.NoContent(http.StatusNoContent)
}

// TeacherStudents lists the students assigned to a teacher
func TeacherStudents(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTeacherOperation("students")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid teacher ID"})
	}

	var teacher model.Teacher
	if err := database.GetDB().First(&teacher, id).Error; err != nil {
		log.Warn("Teacher not found", zap.Uint64("teacher_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var students []model.Student
	if err := database.GetDB().
		Preload("AssignedTeacher").
		Where("assigned_teacher_id = ?", teacher.ID).
		Find(&students).Error; err != nil {
		log.Error("Failed to retrieve students", zap.Uint64("teacher_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve students"})
	}

	return c.JSON(http.StatusOK, studentResponses(students))
}

// orderClause whitelists the ordering query parameter, defaulting to newest
// first
func orderClause(ordering string) string {
	desc := false
	if len(ordering) > 0 && ordering[0] == '-' {
		desc = true
		ordering = ordering[1:]
	}

	switch ordering {
	case "first_name", "last_name", "created_at":
	default:
		return "created_at desc"
	}

	if desc {
		return ordering + " desc"
	}
	return ordering
}

// Helper to refresh the active teacher gauge
func updateTeacherCount() {
	var count int64
	database.GetDB().Model(&model.Teacher{}).
		Where("status = ?", model.StatusActive).
		Count(&count)
	prometheus.UpdateActiveTeachers(count)
}
