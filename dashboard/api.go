// Package dashboard serves timerd's reporting endpoints: aggregate timer
// counts, the recent firings feed and a daily activity summary.
package dashboard

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"
	"github.com/timerd/timerd/fields"
	"gorm.io/gorm"
)

var log = logrus.New()

// Service carries the handles the dashboard endpoints read from.
type Service struct {
	Db    *gorm.DB
	Redis *redis.Client

	// RecentFiringsKey overrides the redis list the firings feed reads.
	RecentFiringsKey string
}

const perPage = 50

func (s *Service) recentKey() string {
	if s.RecentFiringsKey != "" {
		return s.RecentFiringsKey
	}
	return "timerd:recent_firings"
}

// TimersCount reports how many timers sit in each state.
func (s *Service) TimersCount(c *gin.Context) {
	states := []string{fields.StateCreated, fields.StateRunning, fields.StateStopped, fields.StateExpired}
	counts := gin.H{}
	var total int64
	for _, state := range states {
		var n int64
		if err := s.Db.Model(&fields.TimerRecord{}).Where("state = ?", state).Count(&n).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
			return
		}
		counts[state] = n
		total += n
	}
	counts["total"] = total
	c.JSON(http.StatusOK, gin.H{"result": counts})
}

// RecentFirings pages through firing events, newest first. The first page is
// answered off the capped redis list when one is populated; everything else
// falls back to the database.
func (s *Service) RecentFirings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	if page < 0 {
		page = 0
	}

	if s.Redis != nil && page == 0 {
		if items, err := s.Redis.LRange(s.recentKey(), 0, perPage-1).Result(); err == nil && len(items) > 0 {
			events := make([]fields.FiringEvent, 0, len(items))
			for _, item := range items {
				event, err := fields.DecodeFiringEvent([]byte(item))
				if err != nil {
					log.Printf("skipping undecodable firing entry: %v", err)
					continue
				}
				events = append(events, event)
			}
			c.JSON(http.StatusOK, gin.H{"result": events, "paging": gin.H{"page": page, "per_page": perPage, "count": len(events)}})
			return
		}
	}

	var events []fields.FiringEvent
	if err := s.Db.Order("id desc").Offset(page * perPage).Limit(perPage).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": events, "paging": gin.H{"page": page, "per_page": perPage, "count": len(events)}})
}

type daySummary struct {
	Date          string `json:"date"`
	Firings       int64  `json:"firings"`
	Expired       int64  `json:"expired"`
	ElapsedMicros int64  `json:"elapsed_micros"`
}

// DailySummary aggregates the last week of firings per calendar day.
func (s *Service) DailySummary(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -7)
	var events []fields.FiringEvent
	if err := s.Db.Where("created_at >= ?", since).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "code": "db_error"})
		return
	}

	byDay := make(map[string]*daySummary)
	for i := range events {
		day := events[i].CreatedAt.Format("2006-01-02")
		entry, ok := byDay[day]
		if !ok {
			entry = &daySummary{Date: day}
			byDay[day] = entry
		}
		entry.Firings++
		if events[i].Expired {
			entry.Expired++
		}
		entry.ElapsedMicros += events[i].ElapsedMicros
	}

	days := make([]daySummary, 0, len(byDay))
	for _, entry := range byDay {
		days = append(days, *entry)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	c.JSON(http.StatusOK, gin.H{"result": days})
}
