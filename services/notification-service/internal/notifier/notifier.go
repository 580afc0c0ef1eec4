package notifier

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Notifier delivers one message to whoever should hear about it.
type Notifier interface {
	Notify(to, subject, message string) error
}

// Console writes notifications to the log.
type Console struct {
	log *logrus.Entry
}

func NewConsole(log *logrus.Entry) *Console {
	return &Console{log: log.WithField("component", "notifier")}
}

func (c *Console) Notify(to, subject, message string) error {
	c.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info(message)
	return nil
}

// Naira formats a whole-naira amount with thousands separators.
func Naira(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprint(amount)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "₦" + b.String()
}
