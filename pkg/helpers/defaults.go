package helpers

import (
	"math/rand/v2"
	"os"
	"time"
)

// Env supplies the process state the default helpers report.
type Env struct {
	Now  func() time.Time
	Rand *rand.Rand
	CPU  uint32
	PID  uint32
	TGID uint32
}

// Defaults returns the standard helper set for env. Helper addresses are zero until the
// table is placed with Install or given real addresses by the caller.
func Defaults(env Env) *Table {
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if env.PID == 0 {
		env.PID = uint32(os.Getpid())
	}
	if env.TGID == 0 {
		env.TGID = env.PID
	}
	start := env.Now()
	return NewTable(
		Helper{ID: KtimeGetNS, Name: "ktime_get_ns", JITCompatible: true, Fn: func([5]uint64) uint64 {
			return uint64(env.Now().Sub(start).Nanoseconds())
		}},
		Helper{ID: GetPrandomU32, Name: "get_prandom_u32", JITCompatible: true, Fn: func([5]uint64) uint64 {
			return uint64(env.Rand.Uint32())
		}},
		Helper{ID: GetSMPProcessorID, Name: "get_smp_processor_id", JITCompatible: true, Fn: func([5]uint64) uint64 {
			return uint64(env.CPU)
		}},
		Helper{ID: GetCurrentPIDTGID, Name: "get_current_pid_tgid", JITCompatible: true, Fn: func([5]uint64) uint64 {
			return uint64(env.TGID)<<32 | uint64(env.PID)
		}},
		// These two read the caller's socket buffer through the interpreter's frame.
		Helper{ID: SKBStoreBytes, Name: "skb_store_bytes"},
		Helper{ID: L3CsumReplace, Name: "l3_csum_replace"},
	)
}
