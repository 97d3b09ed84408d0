package spark

import "encoding/json"

// Application is the Spark API representation of a submitted application
type Application struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Attempts []ApplicationAttempt `json:"attempts"`
}

type ApplicationAttempt struct {
	AttemptID        string `json:"attemptId,omitempty"`
	StartTime        string `json:"startTime,omitempty"`
	EndTime          string `json:"endTime,omitempty"`
	LastUpdated      string `json:"lastUpdated,omitempty"`
	Duration         int64  `json:"duration"`
	SparkUser        string `json:"sparkUser"`
	Completed        bool   `json:"completed"`
	AppSparkVersion  string `json:"appSparkVersion,omitempty"`
	StartTimeEpoch   int64  `json:"startTimeEpoch"`
	EndTimeEpoch     int64  `json:"endTimeEpoch"`
	LastUpdatedEpoch int64  `json:"lastUpdatedEpoch"`
}

// Job is the Spark API representation of a job
type Job struct {
	ID                 int64   `json:"jobId"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	SubmissionTime     string  `json:"submissionTime,omitempty"`
	CompletionTime     string  `json:"completionTime,omitempty"`
	StageIDs           []int64 `json:"stageIds"`
	JobGroup           string  `json:"jobGroup,omitempty"`
	Status             string  `json:"status"`
	NumTasks           int64   `json:"numTasks"`
	NumActiveTasks     int64   `json:"numActiveTasks"`
	NumCompletedTasks  int64   `json:"numCompletedTasks"`
	NumSkippedTasks    int64   `json:"numSkippedTasks"`
	NumFailedTasks     int64   `json:"numFailedTasks"`
	NumKilledTasks     int64   `json:"numKilledTasks"`
	NumActiveStages    int64   `json:"numActiveStages"`
	NumCompletedStages int64   `json:"numCompletedStages"`
	NumSkippedStages   int64   `json:"numSkippedStages"`
	NumFailedStages    int64   `json:"numFailedStages"`
}

// UnmarshalJSON implements json.Unmarshaler interface.
// Accepts "id" where a backend does not use "jobId".
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	var v struct {
		plain
		AltID *int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*j = Job(v.plain)
	if v.AltID != nil && j.ID == 0 {
		j.ID = *v.AltID
	}
	return nil
}

// Stage is the Spark API representation of a stage
type Stage struct {
	Status                       string  `json:"status"`
	StageID                      int64   `json:"stageId"`
	AttemptID                    int64   `json:"attemptId"`
	Name                         string  `json:"name"`
	Description                  string  `json:"description,omitempty"`
	Details                      string  `json:"details,omitempty"`
	SchedulingPool               string  `json:"schedulingPool,omitempty"`
	FailureReason                string  `json:"failureReason,omitempty"`
	SubmissionTime               string  `json:"submissionTime,omitempty"`
	FirstTaskLaunchedTime        string  `json:"firstTaskLaunchedTime,omitempty"`
	CompletionTime               string  `json:"completionTime,omitempty"`
	RDDIDs                       []int64 `json:"rddIds,omitempty"`
	ResourceProfileID            int64   `json:"resourceProfileId"`
	NumTasks                     int64   `json:"numTasks"`
	NumActiveTasks               int64   `json:"numActiveTasks"`
	NumCompleteTasks             int64   `json:"numCompleteTasks"`
	NumFailedTasks               int64   `json:"numFailedTasks"`
	NumKilledTasks               int64   `json:"numKilledTasks"`
	NumCompletedIndices          int64   `json:"numCompletedIndices"`
	ExecutorDeserializeTime      int64   `json:"executorDeserializeTime"`
	ExecutorDeserializeCPUTime   int64   `json:"executorDeserializeCpuTime"`
	ExecutorRunTime              int64   `json:"executorRunTime"`
	ExecutorCPUTime              int64   `json:"executorCpuTime"`
	ResultSize                   int64   `json:"resultSize"`
	JvmGcTime                    int64   `json:"jvmGcTime"`
	ResultSerializationTime      int64   `json:"resultSerializationTime"`
	MemoryBytesSpilled           int64   `json:"memoryBytesSpilled"`
	DiskBytesSpilled             int64   `json:"diskBytesSpilled"`
	PeakExecutionMemory          int64   `json:"peakExecutionMemory"`
	InputBytes                   int64   `json:"inputBytes"`
	InputRecords                 int64   `json:"inputRecords"`
	OutputBytes                  int64   `json:"outputBytes"`
	OutputRecords                int64   `json:"outputRecords"`
	ShuffleRemoteBlocksFetched   int64   `json:"shuffleRemoteBlocksFetched"`
	ShuffleLocalBlocksFetched    int64   `json:"shuffleLocalBlocksFetched"`
	ShuffleFetchWaitTime         int64   `json:"shuffleFetchWaitTime"`
	ShuffleRemoteBytesRead       int64   `json:"shuffleRemoteBytesRead"`
	ShuffleRemoteBytesReadToDisk int64   `json:"shuffleRemoteBytesReadToDisk"`
	ShuffleLocalBytesRead        int64   `json:"shuffleLocalBytesRead"`
	ShuffleReadBytes             int64   `json:"shuffleReadBytes"`
	ShuffleReadRecords           int64   `json:"shuffleReadRecords"`
	ShuffleWriteBytes            int64   `json:"shuffleWriteBytes"`
	ShuffleWriteTime             int64   `json:"shuffleWriteTime"`
	ShuffleWriteRecords          int64   `json:"shuffleWriteRecords"`
}

// StageAttempt is one execution attempt of a stage,
// tasks and executor summary are present with details=true
type StageAttempt struct {
	Stage
	Tasks           map[string]Task                 `json:"tasks,omitempty"`
	ExecutorSummary map[string]ExecutorStageSummary `json:"executorSummary,omitempty"`
}

type ExecutorStageSummary struct {
	TaskTime            int64 `json:"taskTime"`
	FailedTasks         int64 `json:"failedTasks"`
	SucceededTasks      int64 `json:"succeededTasks"`
	KilledTasks         int64 `json:"killedTasks"`
	InputBytes          int64 `json:"inputBytes"`
	InputRecords        int64 `json:"inputRecords"`
	OutputBytes         int64 `json:"outputBytes"`
	OutputRecords       int64 `json:"outputRecords"`
	ShuffleRead         int64 `json:"shuffleRead"`
	ShuffleReadRecords  int64 `json:"shuffleReadRecords"`
	ShuffleWrite        int64 `json:"shuffleWrite"`
	ShuffleWriteRecords int64 `json:"shuffleWriteRecords"`
	MemoryBytesSpilled  int64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled    int64 `json:"diskBytesSpilled"`
	IsExcludedForStage  bool  `json:"isExcludedForStage"`
}

// StageAttemptTaskSummary holds task metric distributions of a stage attempt,
// every slice is aligned with Quantiles
type StageAttemptTaskSummary struct {
	Quantiles                  []float64 `json:"quantiles"`
	Duration                   []float64 `json:"duration,omitempty"`
	ExecutorDeserializeTime    []float64 `json:"executorDeserializeTime"`
	ExecutorDeserializeCPUTime []float64 `json:"executorDeserializeCpuTime"`
	ExecutorRunTime            []float64 `json:"executorRunTime"`
	ExecutorCPUTime            []float64 `json:"executorCpuTime"`
	ResultSize                 []float64 `json:"resultSize"`
	JvmGcTime                  []float64 `json:"jvmGcTime"`
	ResultSerializationTime    []float64 `json:"resultSerializationTime"`
	GettingResultTime          []float64 `json:"gettingResultTime"`
	SchedulerDelay             []float64 `json:"schedulerDelay"`
	PeakExecutionMemory        []float64 `json:"peakExecutionMemory"`
	MemoryBytesSpilled         []float64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled           []float64 `json:"diskBytesSpilled"`
	InputMetrics               struct {
		BytesRead   []float64 `json:"bytesRead"`
		RecordsRead []float64 `json:"recordsRead"`
	} `json:"inputMetrics"`
	OutputMetrics struct {
		BytesWritten   []float64 `json:"bytesWritten"`
		RecordsWritten []float64 `json:"recordsWritten"`
	} `json:"outputMetrics"`
	ShuffleReadMetrics struct {
		ReadBytes             []float64 `json:"readBytes"`
		ReadRecords           []float64 `json:"readRecords"`
		RemoteBlocksFetched   []float64 `json:"remoteBlocksFetched"`
		LocalBlocksFetched    []float64 `json:"localBlocksFetched"`
		FetchWaitTime         []float64 `json:"fetchWaitTime"`
		RemoteBytesRead       []float64 `json:"remoteBytesRead"`
		RemoteBytesReadToDisk []float64 `json:"remoteBytesReadToDisk"`
		TotalBlocksFetched    []float64 `json:"totalBlocksFetched"`
	} `json:"shuffleReadMetrics"`
	ShuffleWriteMetrics struct {
		WriteBytes   []float64 `json:"writeBytes"`
		WriteRecords []float64 `json:"writeRecords"`
		WriteTime    []float64 `json:"writeTime"`
	} `json:"shuffleWriteMetrics"`
}

// Task is the Spark API representation of a task of a stage attempt
type Task struct {
	TaskID            int64             `json:"taskId"`
	Index             int64             `json:"index"`
	Attempt           int64             `json:"attempt"`
	PartitionID       int64             `json:"partitionId"`
	LaunchTime        string            `json:"launchTime,omitempty"`
	Duration          int64             `json:"duration"`
	ExecutorID        string            `json:"executorId"`
	Host              string            `json:"host"`
	Status            string            `json:"status"`
	TaskLocality      string            `json:"taskLocality"`
	Speculative       bool              `json:"speculative"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
	ExecutorLogs      map[string]string `json:"executorLogs,omitempty"`
	SchedulerDelay    int64             `json:"schedulerDelay"`
	GettingResultTime int64             `json:"gettingResultTime"`
	TaskMetrics       *TaskMetrics      `json:"taskMetrics,omitempty"`
}

type TaskMetrics struct {
	ExecutorDeserializeTime    int64 `json:"executorDeserializeTime"`
	ExecutorDeserializeCPUTime int64 `json:"executorDeserializeCpuTime"`
	ExecutorRunTime            int64 `json:"executorRunTime"`
	ExecutorCPUTime            int64 `json:"executorCpuTime"`
	ResultSize                 int64 `json:"resultSize"`
	JvmGcTime                  int64 `json:"jvmGcTime"`
	ResultSerializationTime    int64 `json:"resultSerializationTime"`
	MemoryBytesSpilled         int64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled           int64 `json:"diskBytesSpilled"`
	PeakExecutionMemory        int64 `json:"peakExecutionMemory"`
	InputMetrics               struct {
		BytesRead   int64 `json:"bytesRead"`
		RecordsRead int64 `json:"recordsRead"`
	} `json:"inputMetrics"`
	OutputMetrics struct {
		BytesWritten   int64 `json:"bytesWritten"`
		RecordsWritten int64 `json:"recordsWritten"`
	} `json:"outputMetrics"`
	ShuffleReadMetrics struct {
		RemoteBlocksFetched   int64 `json:"remoteBlocksFetched"`
		LocalBlocksFetched    int64 `json:"localBlocksFetched"`
		FetchWaitTime         int64 `json:"fetchWaitTime"`
		RemoteBytesRead       int64 `json:"remoteBytesRead"`
		RemoteBytesReadToDisk int64 `json:"remoteBytesReadToDisk"`
		LocalBytesRead        int64 `json:"localBytesRead"`
		RecordsRead           int64 `json:"recordsRead"`
	} `json:"shuffleReadMetrics"`
	ShuffleWriteMetrics struct {
		BytesWritten   int64 `json:"bytesWritten"`
		WriteTime      int64 `json:"writeTime"`
		RecordsWritten int64 `json:"recordsWritten"`
	} `json:"shuffleWriteMetrics"`
}

// Executor is the Spark API representation of an executor
type Executor struct {
	ID                string            `json:"id"`
	HostPort          string            `json:"hostPort"`
	IsActive          bool              `json:"isActive"`
	AddTime           string            `json:"addTime,omitempty"`
	RemoveTime        string            `json:"removeTime,omitempty"`
	RemoveReason      string            `json:"removeReason,omitempty"`
	RDDBlocks         int64             `json:"rddBlocks"`
	MemoryUsed        int64             `json:"memoryUsed"`
	DiskUsed          int64             `json:"diskUsed"`
	TotalCores        int64             `json:"totalCores"`
	MaxTasks          int64             `json:"maxTasks"`
	ActiveTasks       int64             `json:"activeTasks"`
	FailedTasks       int64             `json:"failedTasks"`
	CompletedTasks    int64             `json:"completedTasks"`
	TotalTasks        int64             `json:"totalTasks"`
	TotalDuration     int64             `json:"totalDuration"`
	TotalGCTime       int64             `json:"totalGCTime"`
	TotalInputBytes   int64             `json:"totalInputBytes"`
	TotalShuffleRead  int64             `json:"totalShuffleRead"`
	TotalShuffleWrite int64             `json:"totalShuffleWrite"`
	IsExcluded        bool              `json:"isExcluded"`
	MaxMemory         int64             `json:"maxMemory"`
	ExecutorLogs      map[string]string `json:"executorLogs,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	MemoryMetrics     *struct {
		UsedOnHeapStorageMemory   int64 `json:"usedOnHeapStorageMemory"`
		UsedOffHeapStorageMemory  int64 `json:"usedOffHeapStorageMemory"`
		TotalOnHeapStorageMemory  int64 `json:"totalOnHeapStorageMemory"`
		TotalOffHeapStorageMemory int64 `json:"totalOffHeapStorageMemory"`
	} `json:"memoryMetrics,omitempty"`
	PeakMemoryMetrics map[string]int64 `json:"peakMemoryMetrics,omitempty"`
}

// Thread is a thread dump entry of an executor
type Thread struct {
	ThreadID          int64  `json:"threadId"`
	ThreadName        string `json:"threadName"`
	ThreadState       string `json:"threadState"`
	StackTrace        struct {
		Elems []string `json:"elems"`
	} `json:"stackTrace"`
	BlockedByThreadID *int64   `json:"blockedByThreadId,omitempty"`
	BlockedByLock     string   `json:"blockedByLock"`
	HoldingLocks      []string `json:"holdingLocks"`
	LockName          string   `json:"lockName,omitempty"`
	LockOwnerName     string   `json:"lockOwnerName,omitempty"`
	Suspended         bool     `json:"suspended"`
	InNative          bool     `json:"inNative"`
}

// SQL is the Spark API representation of a SQL execution
type SQL struct {
	ID              int64     `json:"id"`
	Status          string    `json:"status"`
	Description     string    `json:"description"`
	PlanDescription string    `json:"planDescription,omitempty"`
	SubmissionTime  string    `json:"submissionTime,omitempty"`
	Duration        int64     `json:"duration"`
	RunningJobIDs   []int64   `json:"runningJobIds"`
	SuccessJobIDs   []int64   `json:"successJobIds"`
	FailedJobIDs    []int64   `json:"failedJobIds"`
	Nodes           []SQLNode `json:"nodes,omitempty"`
	Edges           []SQLEdge `json:"edges,omitempty"`
}

type SQLNode struct {
	NodeID              int64  `json:"nodeId"`
	NodeName            string `json:"nodeName"`
	WholeStageCodegenID *int64 `json:"wholeStageCodegenId,omitempty"`
	Metrics             []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"metrics"`
}

type SQLEdge struct {
	FromID int64 `json:"fromId"`
	ToID   int64 `json:"toId"`
}

// Environment is the runtime configuration snapshot of an application
type Environment struct {
	Runtime struct {
		JavaVersion  string `json:"javaVersion"`
		JavaHome     string `json:"javaHome"`
		ScalaVersion string `json:"scalaVersion"`
	} `json:"runtime"`
	SparkProperties   Properties        `json:"sparkProperties"`
	HadoopProperties  Properties        `json:"hadoopProperties"`
	SystemProperties  Properties        `json:"systemProperties"`
	MetricsProperties Properties        `json:"metricsProperties"`
	ClasspathEntries  Properties        `json:"classpathEntries"`
	ResourceProfiles  []json.RawMessage `json:"resourceProfiles,omitempty"`
}

// Property is a key-value pair as serialized by Spark: ["key", "value"]
type Property [2]string

func (p Property) Key() string   { return p[0] }
func (p Property) Value() string { return p[1] }

// Properties keeps the backend order of pairs
type Properties []Property

// Get returns value of the first pair with key
func (pp Properties) Get(key string) (string, bool) {
	for _, p := range pp {
		if p.Key() == key {
			return p.Value(), true
		}
	}
	return "", false
}

// Map returns pairs as map, later duplicates win
func (pp Properties) Map() map[string]string {
	m := make(map[string]string, len(pp))
	for _, p := range pp {
		m[p.Key()] = p.Value()
	}
	return m
}
