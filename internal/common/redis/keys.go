// internal/common/redis/keys.go
package redis

import "fmt"

// Redis Key Patterns Redis 키 패턴 상수
const (
	// 마지막 차량 상태 스냅샷
	VehicleStatePattern = "agv:%s:state"

	// 마지막으로 발행한 factsheet
	FactsheetPattern = "agv:%s:factsheet"
)

// VehicleState 차량 상태 키 생성
func VehicleState(serialNumber string) string {
	return fmt.Sprintf(VehicleStatePattern, serialNumber)
}

// Factsheet factsheet 키 생성
func Factsheet(serialNumber string) string {
	return fmt.Sprintf(FactsheetPattern, serialNumber)
}

// AllVehicleStates 모든 차량 상태 키 패턴
func AllVehicleStates() string {
	return fmt.Sprintf(VehicleStatePattern, "*")
}
