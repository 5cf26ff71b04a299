//go:generate mockgen -source=../admin.go -destination=./mock_admin.go -package=mocks

package mocks
