package http

import (
	"uciboard/internal/core"
	"uciboard/internal/engine"
	"uciboard/internal/service"
)

func toGameResponse(snap service.Snapshot) core.GameResponse {
	resp := core.GameResponse{
		GameID:  snap.ID,
		FEN:     snap.FEN,
		Turn:    string(snap.Turn),
		Status:  snap.Status.String(),
		Result:  snap.Result(),
		Moves:   snap.Moves,
		White:   snap.Metadata.White,
		Black:   snap.Metadata.Black,
		InCheck: snap.InCheck,
	}
	if resp.Moves == nil {
		resp.Moves = []string{}
	}
	if m := snap.LastMove; m != nil {
		info := &core.MoveInfo{
			Move:        m.UCI(),
			SAN:         m.SAN(),
			PlayerColor: string(m.Piece.Color()),
		}
		if li := snap.LastInfo; li != nil {
			info.Depth = li.Depth
			if li.Score.IsMate {
				info.Mate = li.Score.Mate
			} else {
				info.Score = li.Score.Centipawns
			}
		}
		resp.LastMove = info
	}
	return resp
}

func toConfigResponse(cfg engine.Configuration) core.ConfigResponse {
	return core.ConfigResponse{
		Preset:   string(cfg.Preset()),
		Threads:  cfg.Threads(),
		HashMB:   cfg.HashMB(),
		Skill:    cfg.Skill(),
		Depth:    cfg.Depth(),
		MoveTime: cfg.MoveTime(),
		MultiPV:  cfg.MultiPV(),
		Ponder:   cfg.Ponder(),
		Summary:  cfg.Summary(),
	}
}

func toAnalysisResponse(info engine.AnalysisInfo) core.AnalysisResponse {
	resp := core.AnalysisResponse{
		Depth:    info.Depth,
		SelDepth: info.SelDepth,
		MultiPV:  info.MultiPV,
		Nodes:    info.Nodes,
		NPS:      info.NPS,
		Score:    info.Score.Scalar(),
		BestMove: info.BestMove,
		PV:       info.PV,
	}
	if info.Score.IsMate {
		mate := info.Score.Mate
		resp.Mate = &mate
	}
	return resp
}
