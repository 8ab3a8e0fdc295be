package events

import (
	"context"
	"encoding/json"
	"fmt"
	"notebookeval/internal/model"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReportGenerated is published once per finished report.
type ReportGenerated struct {
	ReportID          string    `json:"report_id"`
	FolderID          string    `json:"folder_id"`
	StudentID         string    `json:"student_id"`
	StudentName       string    `json:"student_name"`
	NotebookCount     int       `json:"notebook_count"`
	FailedCount       int       `json:"failed_count"`
	AveragePercentage float64   `json:"average_percentage"`
	ArchiveKey        string    `json:"archive_key,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}

func NewReportGenerated(r *model.Report, archiveKey string) ReportGenerated {
	return ReportGenerated{
		ReportID:          r.ID,
		FolderID:          r.FolderID,
		StudentID:         r.Student.ID,
		StudentName:       r.Student.Name,
		NotebookCount:     len(r.Rows),
		FailedCount:       r.FailedCount(),
		AveragePercentage: r.AveragePercentage(),
		ArchiveKey:        archiveKey,
		GeneratedAt:       r.GeneratedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
}

type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: cfg.Topic}
}

func (p *Producer) Publish(ctx context.Context, event ReportGenerated) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.StudentID),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
