package service

import (
	"fmt"
	"time"

	"github.com/opsdeck/opsdeck/internal/models"
)

// Summarize computes the analytics snapshot as of the given reference
// instant. Every count is recomputed from the store on each call; nothing is
// cached or maintained incrementally.
func (s *AdminService) Summarize(now time.Time) (*Summary, error) {
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	oneDayAgo := now.Add(-24 * time.Hour)

	var sum Summary

	if err := s.db.Model(&models.User{}).Count(&sum.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.Model(&models.Role{}).Count(&sum.TotalRoles).Error; err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}
	if err := s.db.Model(&models.User{}).
		Where("last_login >= ?", sevenDaysAgo).
		Count(&sum.ActiveUsers7d).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	if err := s.db.Model(&models.User{}).
		Where("created_at >= ?", sevenDaysAgo).
		Count(&sum.NewUsers7d).Error; err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}
	if err := s.db.Model(&models.AuditLog{}).
		Where("timestamp >= ?", oneDayAgo).
		Count(&sum.RecentActivity24h).Error; err != nil {
		return nil, fmt.Errorf("failed to count recent activity: %w", err)
	}

	return &sum, nil
}
