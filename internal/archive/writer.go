package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "niftypulse/config"
	"niftypulse/logger"
	"niftypulse/models"
)

// SnapshotSource supplies the instrument set to archive. Satisfied by
// the market scheduler.
type SnapshotSource interface {
	Snapshot() []models.Instrument
}

// ParquetRecord is one instrument row in an archived snapshot file.
type ParquetRecord struct {
	Symbol        string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Sector        string  `parquet:"name=sector, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp     int64   `parquet:"name=timestamp, type=INT64"`
	Price         float64 `parquet:"name=price, type=DOUBLE"`
	Open          float64 `parquet:"name=open, type=DOUBLE"`
	High          float64 `parquet:"name=high, type=DOUBLE"`
	Low           float64 `parquet:"name=low, type=DOUBLE"`
	WeekHigh      float64 `parquet:"name=week_high, type=DOUBLE"`
	Change        float64 `parquet:"name=change, type=DOUBLE"`
	PercentChange float64 `parquet:"name=percent_change, type=DOUBLE"`
	Volume        int64   `parquet:"name=volume, type=INT64"`
	AvgVolume     int64   `parquet:"name=avg_volume, type=INT64"`
	RSI           float64 `parquet:"name=rsi, type=DOUBLE"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)   { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write-only usage, seeking is never needed.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// Writer periodically flushes instrument snapshots to S3 as parquet
// files. When archiving is disabled the constructor returns nil and
// every method is a no-op.
type Writer struct {
	cfg      *appconfig.Config
	source   SnapshotSource
	s3Client *s3.Client
	log      *logger.Log

	ctx     context.Context
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	ticker  *time.Ticker
}

func NewWriter(cfg *appconfig.Config, src SnapshotSource) (*Writer, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Archive.S3.Region),
	}
	if cfg.Archive.S3.AccessKeyID != "" && cfg.Archive.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Archive.S3.AccessKeyID,
				cfg.Archive.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	w := &Writer{
		cfg:      cfg,
		source:   src,
		s3Client: s3.NewFromConfig(awsCfg),
		log:      log,
	}

	log.WithComponent("archive").WithFields(logger.Fields{
		"bucket": cfg.Archive.S3.Bucket,
		"region": cfg.Archive.S3.Region,
		"prefix": cfg.Archive.S3.Prefix,
	}).Info("archive writer initialized")

	return w, nil
}

func (w *Writer) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("archive writer already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	interval := w.cfg.Archive.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}
	w.ticker = time.NewTicker(interval)

	w.wg.Add(1)
	go w.flushWorker()

	w.log.WithComponent("archive").WithFields(logger.Fields{"flush_interval": interval.String()}).Info("archive writer started")
	return nil
}

func (w *Writer) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if w.ticker != nil {
		w.ticker.Stop()
	}
	w.log.WithComponent("archive").Info("stopping archive writer")
	w.wg.Wait()
	w.log.WithComponent("archive").Info("archive writer stopped")
}

func (w *Writer) flushWorker() {
	defer w.wg.Done()
	log := w.log.WithComponent("archive").WithFields(logger.Fields{"worker": "flush"})
	log.Info("starting flush worker")

	for {
		select {
		case <-w.ctx.Done():
			w.flush("shutdown")
			log.Info("flush worker stopped due to context cancellation")
			return
		case <-w.ticker.C:
			w.flush("interval")
		}
	}
}

func (w *Writer) flush(reason string) {
	instruments := w.source.Snapshot()
	if len(instruments) == 0 {
		return
	}

	now := time.Now().UTC()
	key := w.generateKey(now)
	log := w.log.WithComponent("archive").WithFields(logger.Fields{
		"reason":      reason,
		"s3_key":      key,
		"instruments": len(instruments),
	})
	log.Info("flushing snapshot archive")

	data, err := createParquetFile(instruments, now)
	if err != nil {
		log.WithError(err).Error("failed to create parquet file")
		return
	}

	if err := w.upload(key, data); err != nil {
		log.WithError(err).WithFields(logger.Fields{"bucket": w.cfg.Archive.S3.Bucket}).Error("failed to upload to S3")
		return
	}
	log.WithFields(logger.Fields{"file_size": len(data)}).Info("snapshot archived successfully")
}

func (w *Writer) generateKey(now time.Time) string {
	filename := fmt.Sprintf("snapshot_%s_%s.parquet", now.Format("20060102150405"), uuid.New().String())
	return path.Join(
		w.cfg.Archive.S3.Prefix,
		fmt.Sprintf("date=%s", now.Format("2006-01-02")),
		fmt.Sprintf("hour=%02d", now.Hour()),
		filename,
	)
}

func createParquetFile(instruments []models.Instrument, now time.Time) ([]byte, error) {
	fw := newMemoryFileWriter()
	pw, err := writer.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	ts := now.UnixMilli()
	for _, inst := range instruments {
		record := ParquetRecord{
			Symbol:        inst.Symbol,
			Sector:        inst.Sector,
			Timestamp:     ts,
			Price:         inst.Price,
			Open:          inst.Open,
			High:          inst.High,
			Low:           inst.Low,
			WeekHigh:      inst.WeekHigh,
			Change:        inst.Change,
			PercentChange: inst.PercentChange,
			Volume:        inst.Volume,
			AvgVolume:     inst.AvgVolume,
			RSI:           inst.RSI,
		}
		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

func (w *Writer) upload(key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.cfg.Archive.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":       "parquet",
			"niftypulse-version": w.cfg.Niftypulse.Version,
		},
	}

	ctx := context.WithoutCancel(w.ctx)
	_, err := w.s3Client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", w.cfg.Archive.S3.Bucket, err)
	}
	return nil
}
