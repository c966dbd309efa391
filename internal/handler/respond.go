// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zhiban/zhiban/pkg/clock"
	apperrors "github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "内部错误")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
}

// decodeJSON 解析请求体
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// requirePost 检查请求方法
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return false
	}
	return true
}

// validateShift 校验班次的日期和墙钟时间格式
func validateShift(s *model.Shift) error {
	if s == nil {
		return apperrors.InvalidInput("shift", "班次不能为空")
	}
	if _, err := time.Parse(clock.DateLayout, s.Date); err != nil {
		return apperrors.InvalidInput("date", "日期格式无效，期望 YYYY-MM-DD: "+s.Date)
	}
	if _, _, err := clock.ParseClock(s.StartTime); err != nil {
		return err
	}
	if _, _, err := clock.ParseClock(s.EndTime); err != nil {
		return err
	}
	return nil
}
