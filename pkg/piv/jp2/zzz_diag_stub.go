package jp2
