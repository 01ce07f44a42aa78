package logging

import (
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
)

// RunTask runs one named task with start/complete/error log entries, a
// fresh task id, and total duration timing. The task receives the LogData
// to attach whatever fields it accumulates along the way.
func RunTask(
	taskName string,
	log *logrus.Logger,
	task func(*LogData) error,
) error {
	logData := NewLogData(log)
	logData.AddData("task_id", uuid.Must(uuid.NewV4()).String())

	log.Infof("Task.%v.Start", taskName)

	endTimer := logData.AddTiming("duration")
	err := task(logData)
	endTimer()
	if err != nil {
		logData.Log().WithError(err).Errorf("Task.%v.Error", taskName)
		return err
	}

	logData.Log().Infof("Task.%v.Complete", taskName)
	return nil
}
