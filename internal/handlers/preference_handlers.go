package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

type PreferenceHandler struct {
	db *gorm.DB
}

func NewPreferenceHandler(db *gorm.DB) *PreferenceHandler {
	return &PreferenceHandler{db: db}
}

// GetPreference returns the notification preference for a buyer, falling
// back to the email default when none is stored yet
func (h *PreferenceHandler) GetPreference(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	var pref models.UserNotifPreference
	if err := h.db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch preference")
		}
		pref = models.UserNotifPreference{
			UserID:             userID,
			Channel:            models.NotificationChannelEmail,
			WhatsappTargetType: models.WhatsappTargetTypePersonal,
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":       map[string]interface{}{"id": user.ID, "name": user.Name, "email": user.Email},
		"preference": pref,
	})
}

type preferenceRequest struct {
	Channel            models.NotificationChannel `json:"channel"`
	WhatsappTargetType string                     `json:"whatsapp_target_type"`
	WhatsappGroupID    string                     `json:"whatsapp_group_id"`
}

// UpdatePreference upserts the notification preference for a buyer
func (h *PreferenceHandler) UpdatePreference(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req preferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	switch req.Channel {
	case models.NotificationChannelEmail, models.NotificationChannelWhatsapp, models.NotificationChannelNone:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "channel must be email, whatsapp or none")
	}
	if req.Channel == models.NotificationChannelWhatsapp {
		switch req.WhatsappTargetType {
		case models.WhatsappTargetTypePersonal:
		case models.WhatsappTargetTypeGroup:
			if req.WhatsappGroupID == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "whatsapp_group_id is required for group targets")
			}
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "whatsapp_target_type must be personal or group")
		}
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	var pref models.UserNotifPreference
	if err := h.db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch preference")
		}
		pref = models.UserNotifPreference{UserID: userID}
	}

	pref.Channel = req.Channel
	pref.WhatsappTargetType = req.WhatsappTargetType
	pref.WhatsappGroupID = req.WhatsappGroupID

	if err := h.db.Save(&pref).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save preference")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"preference": pref})
}
