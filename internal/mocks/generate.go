// Package mocks provides gomock implementations of the quiz portal ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	area := mocks.NewMockStorageArea(ctrl)
//	area.EXPECT().GetItem(gomock.Any(), ports.StorageKeyToken).Return("", false, nil)
package mocks

// Generate mock for StorageArea interface from internal/ports package.
// This creates MockStorageArea with methods: GetItem, SetItem, RemoveItem
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=storage_area_mock.go github.com/evalquiz/quiz-portal/internal/ports StorageArea

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods: Login, Signup
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_backend_mock.go github.com/evalquiz/quiz-portal/internal/ports AuthBackend
