// Package ble exposes the GATT mirror as a native BLE peripheral.
//
// The attribute table is generated from the mirror's registrations, so the
// BLE face and the TNP face always present the same tree. Central writes go
// through Mirror.Write like any TCP write; notifications the mirror fans out
// reach the central through the notifier it handed us when it enabled
// notifications.
//
// The advertisement carries the device name and the standard cycling service
// UUIDs (CSC, Cycling Power, Heart Rate, FTMS). The Zwift Ride service is
// deliberately absent from the advertisement: Zwift discovers it over
// mDNS/TCP. The peripheral sets no preferred connection interval of its
// own; connection parameters are left to the underlying stack and the
// central.
package ble
