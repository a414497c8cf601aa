package scheduler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timerd/timerd/fields"
)

// DeliverWebhook posts the firing event JSON to url and returns the status
// code the endpoint answered with. Any status outside 2xx counts as a
// failed delivery.
func (s *Service) DeliverWebhook(url string, event *fields.FiringEvent) (int, error) {
	timeout := time.Duration(s.Config.WebhookTimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := http.Client{Timeout: timeout}

	data, err := event.Encode()
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"url":   url,
		}).Error("Error in building webhook request")
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		fields.RecordWebhook(0, err, duration)
		s.logger().WithFields(logrus.Fields{
			"error": err.Error(),
			"url":   url,
		}).Error("Error in establishing connection to the webhook host")
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	var deliveryErr error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		deliveryErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	fields.RecordWebhook(resp.StatusCode, deliveryErr, duration)
	return resp.StatusCode, deliveryErr
}
