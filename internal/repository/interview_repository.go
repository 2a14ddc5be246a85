package repository

import (
	"visa_interview_backend/internal/model"

	"gorm.io/gorm"
)

type InterviewRepository struct {
	DB *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{DB: db}
}

func (r *InterviewRepository) SaveReport(report *model.InterviewReport) error {
	return r.DB.Create(report).Error
}

func (r *InterviewRepository) FindReportByID(id string) (*model.InterviewReport, error) {
	var report model.InterviewReport
	err := r.DB.Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *InterviewRepository) FindReportsByUser(userID uint, page, limit int) ([]model.InterviewReport, int64, error) {
	var reports []model.InterviewReport
	var total int64

	q := r.DB.Model(&model.InterviewReport{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// UpdateRecordingURL 回写录像地址；探测到的媒体时长比逐回合累加更准，一并覆盖
func (r *InterviewRepository) UpdateRecordingURL(reportID string, url string, durationSec float64) error {
	updates := map[string]interface{}{"recording_url": url}
	if durationSec > 0 {
		updates["duration_sec"] = durationSec
	}
	return r.DB.Model(&model.InterviewReport{}).Where("id = ?", reportID).
		Updates(updates).Error
}

type ScoreHistoryRepository struct {
	DB *gorm.DB
}

func NewScoreHistoryRepository(db *gorm.DB) *ScoreHistoryRepository {
	return &ScoreHistoryRepository{DB: db}
}

// Append 只追加，历史条目一经写入不再修改
func (r *ScoreHistoryRepository) Append(entry *model.ScoreHistoryEntry) error {
	return r.DB.Create(entry).Error
}

// FindByUser 按时间升序返回完整历史，供分析引擎消费
func (r *ScoreHistoryRepository) FindByUser(userID uint) ([]model.ScoreHistoryEntry, error) {
	var entries []model.ScoreHistoryEntry
	err := r.DB.Where("user_id = ?", userID).
		Order("taken_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
