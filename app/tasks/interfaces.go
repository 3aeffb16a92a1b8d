package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and API handlers to manage background portal
// sync processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
