package notification

import "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"

// roleAllowList is the per-role notification permission table. Filtering is
// data, not branching code: each role maps to the categories it may receive
// and, within a category, the event types. Admin is absent from the table
// and allowed everything.
var roleAllowList = map[models.Role]map[models.NotificationCategory][]models.NotificationType{
	models.RolePatient: {
		models.CategoryQueue: {
			models.NotifQueueJoined,
			models.NotifQueueYourTurn,
			models.NotifQueueCompleted,
			models.NotifQueueCancelled,
		},
		models.CategoryAppointment: {
			models.NotifApptNew,
			models.NotifApptCancelled,
		},
		models.CategoryPayment: {
			models.NotifPaymentConfirmed,
		},
	},
	models.RoleDoctor: {
		models.CategoryQueue: {
			models.NotifPatientArrived,
		},
		models.CategoryRecord: {
			models.NotifRecordUpdated,
		},
	},
	models.RoleStaff: {
		models.CategoryAppointment: {
			models.NotifApptNew,
			models.NotifApptCancelled,
		},
		models.CategoryPayment: {
			models.NotifPaymentConfirmed,
		},
	},
}

// Allowed reports whether a notification of the given category and type may
// be delivered to a recipient holding the role. Anything not explicitly
// allowed is suppressed.
func Allowed(role models.Role, category models.NotificationCategory, typ models.NotificationType) bool {
	if role == models.RoleAdmin {
		return true
	}

	types, ok := roleAllowList[role][category]
	if !ok {
		return false
	}
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}
