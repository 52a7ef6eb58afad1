package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mustaqeer/mustaqeer-api/internal/models"
)

// Notification types
const (
	NotifMemberJoined = "member_joined"
	NotifMemberLeft   = "member_left"
	NotifEvicted      = "evicted"
	NotifKhatmah      = "khatmah"
)

// Notifier persists notification rows and mirrors them to FCM push.
type Notifier struct {
	db   *gorm.DB
	push *PushService
}

func NewNotifier(db *gorm.DB, push *PushService) *Notifier {
	return &Notifier{db: db, push: push}
}

// Notify creates a notification for a user and sends a push in the background.
func (n *Notifier) Notify(userID uuid.UUID, notifType, title, body string, metadata map[string]interface{}) {
	notif := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}

	var pushData map[string]string
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			notif.Metadata = &s
		}
		// Convert metadata to string map for push payload
		pushData = make(map[string]string)
		for k, v := range metadata {
			pushData[k] = fmt.Sprintf("%v", v)
		}
		pushData["type"] = notifType
	}

	if err := n.db.Create(&notif).Error; err != nil {
		log.Printf("Notify: failed to store notification for user %s: %v", userID, err)
		return
	}

	if n.push != nil {
		go n.push.SendToUser(userID, title, body, pushData)
	}
}

// NotifyEpisodeMembers notifies every member of an episode except the actor.
func (n *Notifier) NotifyEpisodeMembers(episodeID, excludeUserID uuid.UUID, notifType, title, body string, metadata map[string]interface{}) {
	var members []models.Member
	if err := n.db.Where("episode_id = ? AND user_id != ?", episodeID, excludeUserID).Find(&members).Error; err != nil {
		log.Printf("Notify: failed to load members of episode %s: %v", episodeID, err)
		return
	}

	for _, m := range members {
		n.Notify(m.UserID, notifType, title, body, metadata)
	}
}
