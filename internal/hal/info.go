package hal

// PSInfo is the decoded info register of the packet-switched adapter.
type PSInfo struct {
	Endpoints   int
	Distributed bool
}

func DecodePSInfo(raw uint32) PSInfo {
	return PSInfo{
		Endpoints:   int(raw & 0xffff),
		Distributed: raw>>31 != 0,
	}
}

func EncodePSInfo(info PSInfo) uint32 {
	raw := uint32(info.Endpoints) & 0xffff
	if info.Distributed {
		raw |= 1 << 31
	}
	return raw
}

// TDMInfo is the decoded info register of the TDM adapter.
type TDMInfo struct {
	Channels      int
	MaxMessageLen int
}

func DecodeTDMInfo(raw uint32) TDMInfo {
	return TDMInfo{
		Channels:      int(raw & 0xff),
		MaxMessageLen: int(raw >> 16),
	}
}

func EncodeTDMInfo(info TDMInfo) uint32 {
	return uint32(info.Channels)&0xff | (uint32(info.MaxMessageLen)&0xffff)<<16
}
