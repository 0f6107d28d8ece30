package domain

import "time"

// AnalysisResult output of one pipeline invocation for one security.
type AnalysisResult struct {
	RunID     string            `json:"run_id"`
	Ticker    string            `json:"ticker"`
	Source    SourceKind        `json:"source"`
	Signal    string            `json:"signal"`
	CreatedAt time.Time         `json:"created_at"`
	Anomalies *AnomalyTable     `json:"anomalies"`
	Periods   []DetectorPeriods `json:"periods"`
	Marks     *MarkTable        `json:"marks"`
	NewsTotal int               `json:"news_total"`
}

// ResultRecord stored result with its log index.
type ResultRecord struct {
	Index  uint64         `json:"index"`
	Result AnalysisResult `json:"result"`
}
