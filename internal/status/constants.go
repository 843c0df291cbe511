// internal/status/constants.go
package status

// AnalogMax is the full-scale value of a 12-bit channel.
const AnalogMax = 4095

// Status block layout constants (Modbus mirror).
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of holding registers per block.
const SlotsPerBlock = 24

// ---- SLOT INDICES ----

// SlotMode holds the decoded mode (0 off, 1 auto, 2 manual, 3 joystick).
const SlotMode = 0

// SlotModeSwitch holds A1_1 and A1_2 (2 slots).
const SlotModeSwitch = 1

// SlotIndicators holds A2..A4 (3 slots).
const SlotIndicators = 3

// SlotSlotSwitch holds B1_1 and B1_2 (2 slots).
const SlotSlotSwitch = 6

// SlotToggle holds B4.
const SlotToggle = 8

// SlotMomentary holds B5.
const SlotMomentary = 9

// SlotAnalog holds B2_pot and B3_pot (2 slots).
const SlotAnalog = 10

// SlotStored holds the three stored values.
const SlotStored = 12

// SlotJoysticks holds one bitmask per joystick C1..C4 (4 slots).
const SlotJoysticks = 15

// ---- RESERVED RANGE ----

// Slots 19–23 are reserved for future use.
const SlotReservedStart = 19
const SlotReservedEnd = 23
