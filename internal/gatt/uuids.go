package gatt

// Well-known service and characteristic UUIDs exposed by the bridge.
var (
	// Zwift Ride service. Zwift discovers this over mDNS/TCP rather than the
	// BLE advertisement.
	RideService = MustParseUUID("0000fc82-0000-1000-8000-00805f9b34fb")

	// RideSyncRX receives commands and the RideOn handshake from the app.
	RideSyncRX = MustParseUUID("00000003-19ca-4651-86e5-fa29dcdd09d1")
	// RideAsyncTX carries asynchronous events (gear changes, battery).
	RideAsyncTX = MustParseUUID("00000002-19ca-4651-86e5-fa29dcdd09d1")
	// RideSyncTX carries synchronous responses, the handshake reply and
	// keep-alives.
	RideSyncTX = MustParseUUID("00000004-19ca-4651-86e5-fa29dcdd09d1")

	// Fitness Machine Service and its characteristics.
	FTMSService          = UUID16(0x1826)
	FTMSFeature          = UUID16(0x2acc)
	FTMSIndoorBikeData   = UUID16(0x2ad2)
	FTMSSimulationParams = UUID16(0x2ad5)
	FTMSControlPoint     = UUID16(0x2ad9)
	FTMSMachineStatus    = UUID16(0x2ada)

	// Cycling Power service.
	CyclingPowerService     = UUID16(0x1818)
	CyclingPowerMeasurement = UUID16(0x2a63)
	CyclingPowerFeature     = UUID16(0x2a65)
	SensorLocation          = UUID16(0x2a5d)

	// Cycling Speed and Cadence service.
	CSCService     = UUID16(0x1816)
	CSCMeasurement = UUID16(0x2a5b)
	CSCFeature     = UUID16(0x2a5c)

	// Heart Rate service.
	HeartRateService     = UUID16(0x180d)
	HeartRateMeasurement = UUID16(0x2a37)

	// Device Information service.
	DeviceInfoService = UUID16(0x180a)
	ManufacturerName  = UUID16(0x2a29)
	ModelNumber       = UUID16(0x2a24)
	SerialNumber      = UUID16(0x2a25)
	HardwareRevision  = UUID16(0x2a27)
	FirmwareRevision  = UUID16(0x2a26)
)
