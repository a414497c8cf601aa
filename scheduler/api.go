package scheduler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/timerd/timerd/apperr"
	"github.com/timerd/timerd/fields"
	"github.com/timerd/timerd/timer"
	"github.com/timerd/timerd/utils"
)

// CreateTimer registers a new managed timer and optionally starts its
// countdown right away.
func (s *Service) CreateTimer(c *gin.Context) {
	var req fields.TimerRequest
	bindingErr := c.ShouldBindWith(&req, binding.JSON)
	switch bindingErr := bindingErr.(type) {
	case validator.ValidationErrors:
		c.JSON(http.StatusBadRequest, fields.ValidationResponse(bindingErr))
		return
	case nil:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": bindingErr.Error(), "code": "bad_request"})
		return
	}

	id := uuid.New().String()
	t, err := timer.New(req.DurationMicros, s.fired, id, req.Payload)
	if err != nil {
		err := apperr.Wrap(err, apperr.ErrBadRequest, "")
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	record := fields.TimerRecord{
		UUID:           id,
		DurationMicros: req.DurationMicros,
		State:          fields.StateCreated,
		WebhookURL:     req.WebhookURL,
		Payload:        req.Payload,
	}
	if userID, ok := c.Get("user_id"); ok {
		if uid, ok := userID.(uint); ok {
			record.UserID = uid
		}
	}
	if err := s.Db.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
		return
	}
	s.track(id, t)
	fields.RecordTimerAction("create")
	username, _ := utils.GetOrDefault(c.Keys, "username", "anonymous")
	s.logger().WithFields(logrus.Fields{
		"username": username,
		"uuid":     id,
	}).Info("timer created")

	if req.Autostart {
		// persist the transition before the countdown launches so a
		// sub-millisecond expiry cannot overwrite it out of order
		record.State = fields.StateRunning
		if err := s.Db.Model(&record).Update("state", fields.StateRunning).Error; err != nil {
			s.logger().Printf("unable to mark timer %s running: %v", id, err)
		}
		t.Start()
		fields.RecordTimerAction("start")
	}
	c.JSON(http.StatusCreated, gin.H{"result": record.Response()})
}

// StartTimer launches the countdown of an existing timer. Starting a timer
// that is already running is a no-op.
func (s *Service) StartTimer(c *gin.Context) {
	record, err := fields.GetTimerByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	t, err := s.ensureLive(record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}
	if t.Running() {
		c.JSON(http.StatusOK, gin.H{"result": record.Response()})
		return
	}

	// same write-before-start ordering as the autostart path
	record.State = fields.StateRunning
	record.ElapsedMicros = 0
	record.Expired = t.Expired()
	if err := s.Db.Save(&record).Error; err != nil {
		s.logger().Printf("unable to mark timer %s running: %v", record.UUID, err)
	}
	t.Start()
	fields.RecordTimerAction("start")
	c.JSON(http.StatusOK, gin.H{"result": record.Response()})
}

// StopTimer interrupts a running countdown and reports the microseconds
// that elapsed since it started. Stopping a timer that is not running just
// reports the last reading.
func (s *Service) StopTimer(c *gin.Context) {
	record, err := fields.GetTimerByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}

	t, ok := s.lookup(record.UUID)
	if !ok {
		// nothing live, e.g. the daemon restarted under a running timer
		if record.State == fields.StateRunning {
			record.State = fields.StateStopped
			if err := s.Db.Save(&record).Error; err != nil {
				s.logger().Printf("unable to reconcile timer %s: %v", record.UUID, err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"result": record.Response(), "elapsed_micros": record.ElapsedMicros})
		return
	}

	wasRunning := t.Running()
	elapsed := t.Stop()
	if t.Expired() {
		// the countdown won the race against us and fired already
		if fresh, err := fields.GetTimerByUUID(record.UUID, s.Db); err == nil {
			record = fresh
		}
		fields.RecordTimerAction("stop")
		c.JSON(http.StatusOK, gin.H{"result": record.Response(), "elapsed_micros": record.ElapsedMicros})
		return
	}

	record.ElapsedMicros = elapsed
	if wasRunning {
		record.State = fields.StateStopped
		event := fields.FiringEvent{
			TimerUUID:     record.UUID,
			ElapsedMicros: elapsed,
			Expired:       false,
			Payload:       record.Payload,
		}
		if err := s.Db.Create(&event).Error; err != nil {
			s.logger().Printf("unable to persist stop event for %s: %v", record.UUID, err)
		}
		s.publishFiring(&event)
		fields.RecordFiring(false)
	}
	if err := s.Db.Save(&record).Error; err != nil {
		s.logger().Printf("unable to persist stop for %s: %v", record.UUID, err)
	}
	fields.RecordTimerAction("stop")
	c.JSON(http.StatusOK, gin.H{"result": record.Response(), "elapsed_micros": elapsed})
}

// ResetTimer interrupts the countdown if needed and returns the timer to
// its pristine state so it can be started again.
func (s *Service) ResetTimer(c *gin.Context) {
	record, err := fields.GetTimerByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	t, err := s.ensureLive(record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "internal_error"})
		return
	}

	t.Reset()
	record.State = fields.StateCreated
	record.ElapsedMicros = 0
	record.Expired = false
	record.FiredAt = nil
	if err := s.Db.Save(&record).Error; err != nil {
		s.logger().Printf("unable to persist reset for %s: %v", record.UUID, err)
	}
	fields.RecordTimerAction("reset")
	c.JSON(http.StatusOK, gin.H{"result": record.Response()})
}

// GetTimer returns a single timer by uuid.
func (s *Service) GetTimer(c *gin.Context) {
	record, err := fields.GetTimerByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	// the row can lag behind a countdown that is ticking right now
	if t, ok := s.lookup(record.UUID); ok && t.Running() {
		record.State = fields.StateRunning
	}
	c.JSON(http.StatusOK, gin.H{"result": record.Response()})
}

// ListTimers returns stored timers, newest first. It accepts a `page` query
// param and returns 50 rows per page.
func (s *Service) ListTimers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	if page < 0 {
		page = 0
	}
	const perPage = 50

	records, err := fields.ListTimers(s.Db, page*perPage, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
		return
	}
	responses := make([]fields.TimerResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, r.Response())
	}
	c.JSON(http.StatusOK, gin.H{"result": responses, "paging": gin.H{"page": page, "per_page": perPage, "count": len(responses)}})
}

// DeleteTimer stops any live countdown and removes the timer.
func (s *Service) DeleteTimer(c *gin.Context) {
	record, err := fields.GetTimerByUUID(c.Param("uuid"), s.Db)
	if err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	if t, ok := s.lookup(record.UUID); ok {
		t.Stop()
		s.untrack(record.UUID)
	}
	if err := s.Db.Delete(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
		return
	}
	fields.RecordTimerAction("delete")
	c.JSON(http.StatusOK, gin.H{"result": "deleted"})
}
