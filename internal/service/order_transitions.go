package service

import (
	"teranga/internal/authz"
	"teranga/internal/model"
)

// transitions is the order state machine: current → next → permission.
// A pair that is absent here is an invalid transition for every role.
var transitions = map[model.OrderStatus]map[model.OrderStatus]authz.Permission{
	model.OrderPending: {
		model.OrderConfirmed: authz.PermOrderConfirm,
		model.OrderCancelled: authz.PermOrderCancel,
	},
	model.OrderConfirmed: {
		model.OrderPreparing: authz.PermOrderPrepare,
		model.OrderCancelled: authz.PermOrderCancelConfirmed,
	},
	model.OrderPreparing: {
		model.OrderReady:     authz.PermOrderPrepare,
		model.OrderCancelled: authz.PermOrderCancelConfirmed,
	},
	model.OrderReady: {
		model.OrderCompleted: authz.PermOrderComplete,
		model.OrderCancelled: authz.PermOrderCancelConfirmed,
	},
}

// TransitionPermission returns the permission guarding from → to, and false
// when the transition does not exist.
func TransitionPermission(from, to model.OrderStatus) (authz.Permission, bool) {
	perm, ok := transitions[from][to]
	return perm, ok
}

// NextStatuses lists the statuses reachable from s in lifecycle order.
func NextStatuses(s model.OrderStatus) []model.OrderStatus {
	var out []model.OrderStatus
	for _, to := range model.OrderStatuses {
		if _, ok := transitions[s][to]; ok {
			out = append(out, to)
		}
	}
	return out
}
